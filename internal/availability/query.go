package availability

import (
	"fmt"
	"slices"
)

// QueryTypeTable is the query service type for multidimensional table queries.
const QueryTypeTable = "MDAQuery_Table"

// Selection is the caller's spatiotemporal selection.
type Selection struct {
	// TimeRange is the service's range literal, e.g. "[2015-01-01,2016-01-01]".
	// It is passed to the query service unchanged.
	TimeRange string

	// Seasons and Stages are required exactly when the cube declares a
	// SEASON or STAGE axis.
	Seasons []string
	Stages  []string
}

// Query is the payload posted to the query service.
type Query struct {
	Type   string      `json:"type"`
	Params QueryParams `json:"params"`

	shape Shape
}

// QueryParams holds the body of a table query.
type QueryParams struct {
	Properties QueryProperties `json:"properties"`
	Cube       CubeRef         `json:"cube"`
	Dimensions []Filter        `json:"dimensions"`
	Measures   []string        `json:"measures"`
	Projection Projection      `json:"projection"`
}

// QueryProperties asks for raster metadata in an unpaged response.
type QueryProperties struct {
	Metadata bool `json:"metadata"`
	Paged    bool `json:"paged"`
}

// CubeRef identifies the queried cube.
type CubeRef struct {
	Code          string `json:"code"`
	WorkspaceCode string `json:"workspaceCode"`
	Language      string `json:"language"`
}

// Filter restricts one axis, either to a range literal (time axis) or to an
// explicit member list (categorical axes).
type Filter struct {
	Code   string   `json:"code"`
	Range  string   `json:"range,omitempty"`
	Values []string `json:"values,omitempty"`
}

// FilterKind distinguishes range filters from member filters.
type FilterKind string

const (
	FilterRange  FilterKind = "range"
	FilterValues FilterKind = "values"
)

// Kind reports which kind of filter f is.
func (f Filter) Kind() FilterKind {
	if f.Values != nil {
		return FilterValues
	}
	return FilterRange
}

// Projection mirrors the axis list into table rows.
type Projection struct {
	Columns []string `json:"columns"`
	Rows    []string `json:"rows"`
}

// Shape returns the axis combination the query was built for.
func (q *Query) Shape() Shape {
	return q.shape
}

// BuildQuery constructs the table query for a cube with the given ordered
// dimension codes. It has no side effects.
func BuildQuery(cubeCode, workspaceCode string, dimensions []string, measureCode string, sel Selection) (*Query, error) {
	shape, err := ShapeOf(dimensions)
	if err != nil {
		return nil, err
	}

	var filters []Filter
	switch shape {
	case ShapeTime:
		filters = []Filter{
			{Code: dimensions[0], Range: sel.TimeRange},
		}
	case ShapeSeasonTime:
		if len(sel.Seasons) == 0 {
			return nil, fmt.Errorf("%w: cube %s declares %s", ErrMissingMemberValues, cubeCode, DimensionSeason)
		}
		filters = []Filter{
			{Code: dimensions[0], Values: slices.Clone(sel.Seasons)},
			{Code: dimensions[1], Range: sel.TimeRange},
		}
	case ShapeSeasonStageTime:
		if len(sel.Seasons) == 0 {
			return nil, fmt.Errorf("%w: cube %s declares %s", ErrMissingMemberValues, cubeCode, DimensionSeason)
		}
		if len(sel.Stages) == 0 {
			return nil, fmt.Errorf("%w: cube %s declares %s", ErrMissingMemberValues, cubeCode, DimensionStage)
		}
		filters = []Filter{
			{Code: dimensions[0], Values: slices.Clone(sel.Seasons)},
			{Code: dimensions[1], Values: slices.Clone(sel.Stages)},
			{Code: dimensions[2], Range: sel.TimeRange},
		}
	}

	return &Query{
		Type: QueryTypeTable,
		Params: QueryParams{
			Properties: QueryProperties{Metadata: true, Paged: false},
			Cube: CubeRef{
				Code:          cubeCode,
				WorkspaceCode: workspaceCode,
				Language:      "en",
			},
			Dimensions: filters,
			Measures:   []string{measureCode},
			Projection: Projection{
				Columns: []string{MeasuresAxis},
				Rows:    slices.Clone(dimensions),
			},
		},
		shape: shape,
	}, nil
}
