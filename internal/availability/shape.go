package availability

import "fmt"

// Dimension codes used by the catalog service.
const (
	DimensionYear   = "YEAR"
	DimensionAnnual = "ANNUAL"
	DimensionDekad  = "DEKAD"
	DimensionDay    = "DAY"
	DimensionSeason = "SEASON"
	DimensionStage  = "STAGE"

	// MeasuresAxis is the projection column holding measure values.
	MeasuresAxis = "MEASURES"
)

// Descriptor identifies a data cube and its declared axes.
type Descriptor struct {
	Code          string
	WorkspaceCode string
	Dimensions    []Dimension
	Measure       Measure
}

// Dimension is one declared axis of a cube.
type Dimension struct {
	Code    string `json:"code"`
	Caption string `json:"caption,omitempty"`
	Type    string `json:"type,omitempty"` // "TIME" or "WHAT"
}

// Measure is the quantitative variable a cube reports.
type Measure struct {
	Code       string  `json:"code"`
	Caption    string  `json:"caption,omitempty"`
	Unit       string  `json:"unit,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
}

// DimensionCodes returns the dimension codes in declared order.
func (d *Descriptor) DimensionCodes() []string {
	codes := make([]string, len(d.Dimensions))
	for i, dim := range d.Dimensions {
		codes[i] = dim.Code
	}
	return codes
}

// TimeDimension returns the code of the last declared axis, which is the
// time axis for every supported shape.
func (d *Descriptor) TimeDimension() string {
	if len(d.Dimensions) == 0 {
		return ""
	}
	return d.Dimensions[len(d.Dimensions)-1].Code
}

// HasDimension reports whether the cube declares an axis with the given code.
func (d *Descriptor) HasDimension(code string) bool {
	for _, dim := range d.Dimensions {
		if dim.Code == code {
			return true
		}
	}
	return false
}

// Shape is the fixed set of axis combinations the query service supports.
type Shape int

const (
	ShapeTime Shape = iota + 1
	ShapeSeasonTime
	ShapeSeasonStageTime
)

// ShapeOf classifies an ordered list of dimension codes.
func ShapeOf(dimensions []string) (Shape, error) {
	switch len(dimensions) {
	case 1:
		return ShapeTime, nil
	case 2:
		if dimensions[0] != DimensionSeason {
			return 0, fmt.Errorf("%w: axis 0 is %q, want %s", ErrUnexpectedDimension, dimensions[0], DimensionSeason)
		}
		return ShapeSeasonTime, nil
	case 3:
		if dimensions[0] != DimensionSeason {
			return 0, fmt.Errorf("%w: axis 0 is %q, want %s", ErrUnexpectedDimension, dimensions[0], DimensionSeason)
		}
		if dimensions[1] != DimensionStage {
			return 0, fmt.Errorf("%w: axis 1 is %q, want %s", ErrUnexpectedDimension, dimensions[1], DimensionStage)
		}
		return ShapeSeasonStageTime, nil
	default:
		return 0, fmt.Errorf("%w: got %d, want 1, 2 or 3", ErrInvalidDimensionCount, len(dimensions))
	}
}

// Axes returns the number of axes for the shape.
func (s Shape) Axes() int {
	switch s {
	case ShapeTime:
		return 1
	case ShapeSeasonTime:
		return 2
	case ShapeSeasonStageTime:
		return 3
	default:
		return 0
	}
}

// HasSeason reports whether the shape carries a SEASON axis.
func (s Shape) HasSeason() bool {
	return s == ShapeSeasonTime || s == ShapeSeasonStageTime
}

// HasStage reports whether the shape carries a STAGE axis.
func (s Shape) HasStage() bool {
	return s == ShapeSeasonStageTime
}

func (s Shape) String() string {
	switch s {
	case ShapeTime:
		return "time"
	case ShapeSeasonTime:
		return "season+time"
	case ShapeSeasonStageTime:
		return "season+stage+time"
	default:
		return "unknown"
	}
}
