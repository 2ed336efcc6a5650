package availability

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Granularity is the temporal resolution of a cube's time axis.
type Granularity int

const (
	Annual Granularity = iota + 1
	Dekadal
	Daily
)

// GranularityOf maps a declared time axis code to its granularity.
func GranularityOf(code string) (Granularity, error) {
	switch code {
	case DimensionYear, DimensionAnnual:
		return Annual, nil
	case DimensionDekad:
		return Dekadal, nil
	case DimensionDay:
		return Daily, nil
	default:
		return 0, fmt.Errorf("%w: time axis %q", ErrUnsupportedGranularity, code)
	}
}

func (g Granularity) String() string {
	switch g {
	case Annual:
		return "annual"
	case Dekadal:
		return "dekadal"
	case Daily:
		return "daily"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the granularity by name.
func (g Granularity) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

// UnmarshalJSON decodes a granularity name written by MarshalJSON.
func (g *Granularity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("granularity must be a string: %w", err)
	}
	switch name {
	case "annual":
		*g = Annual
	case "dekadal":
		*g = Dekadal
	case "daily":
		*g = Daily
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedGranularity, name)
	}
	return nil
}

// Character offsets of the date parts inside time values returned by the
// query service. Dekad values look like "2015-03-D1 [ 01 -> 10 ]".
const (
	yearStart, yearEnd           = 0, 4
	monthStart, monthEnd         = 5, 7
	dayStart, dayEnd             = 8, 10
	dekadFromStart, dekadFromEnd = 13, 15
	dekadToStart, dekadToEnd     = 19, 21
	dekadDayLayout               = "0102"
)

// Period is the temporal representation of one record. Exactly one of Date
// (annual, daily) or Start/End (dekadal) is populated, chosen by Granularity.
type Period struct {
	Granularity Granularity `json:"granularity"`
	Date        time.Time   `json:"date,omitzero"`
	Start       time.Time   `json:"start,omitzero"`
	End         time.Time   `json:"end,omitzero"`
}

// Year returns the year index of the period: the year of the annual date,
// the daily date, or the dekad start.
func (p Period) Year() string {
	if p.Granularity == Dekadal {
		return p.Start.Format("2006")
	}
	return p.Date.Format("2006")
}

// StartDekad returns the dekad start as "MMDD", or "" for non-dekadal periods.
func (p Period) StartDekad() string {
	if p.Granularity != Dekadal {
		return ""
	}
	return p.Start.Format(dekadDayLayout)
}

// EndDekad returns the dekad end as "MMDD", or "" for non-dekadal periods.
func (p Period) EndDekad() string {
	if p.Granularity != Dekadal {
		return ""
	}
	return p.End.Format(dekadDayLayout)
}

// Interval returns the first and last day covered by the period.
func (p Period) Interval() (time.Time, time.Time) {
	switch p.Granularity {
	case Annual:
		return time.Date(p.Date.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), p.Date
	case Dekadal:
		return p.Start, p.End
	default:
		return p.Date, p.Date
	}
}

// ParsePeriod parses a time value returned by the query service.
func ParsePeriod(g Granularity, value string) (Period, error) {
	switch g {
	case Annual:
		if len(value) != 4 {
			return Period{}, fmt.Errorf("%w: annual value %q", ErrMalformedTimeValue, value)
		}
		year, err := atoi(value, yearStart, yearEnd)
		if err != nil {
			return Period{}, err
		}
		return Period{Granularity: Annual, Date: time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)}, nil

	case Dekadal:
		year, err := atoi(value, yearStart, yearEnd)
		if err != nil {
			return Period{}, err
		}
		month, err := atoi(value, monthStart, monthEnd)
		if err != nil {
			return Period{}, err
		}
		from, err := atoi(value, dekadFromStart, dekadFromEnd)
		if err != nil {
			return Period{}, err
		}
		to, err := atoi(value, dekadToStart, dekadToEnd)
		if err != nil {
			return Period{}, err
		}
		start, err := date(value, year, month, from)
		if err != nil {
			return Period{}, err
		}
		end, err := date(value, year, month, to)
		if err != nil {
			return Period{}, err
		}
		if end.Before(start) {
			return Period{}, fmt.Errorf("%w: dekad %q ends before it starts", ErrMalformedTimeValue, value)
		}
		return Period{Granularity: Dekadal, Start: start, End: end}, nil

	case Daily:
		year, err := atoi(value, yearStart, yearEnd)
		if err != nil {
			return Period{}, err
		}
		month, err := atoi(value, monthStart, monthEnd)
		if err != nil {
			return Period{}, err
		}
		day, err := atoi(value, dayStart, dayEnd)
		if err != nil {
			return Period{}, err
		}
		d, err := date(value, year, month, day)
		if err != nil {
			return Period{}, err
		}
		return Period{Granularity: Daily, Date: d}, nil

	default:
		return Period{}, fmt.Errorf("%w: %d", ErrUnsupportedGranularity, g)
	}
}

func atoi(value string, from, to int) (int, error) {
	if len(value) < to {
		return 0, fmt.Errorf("%w: %q is shorter than %d characters", ErrMalformedTimeValue, value, to)
	}
	n, err := strconv.Atoi(value[from:to])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q has no number at [%d:%d]", ErrMalformedTimeValue, value, from, to)
	}
	return n, nil
}

// date rejects values time.Date would silently normalize, like 2015-02-30.
func date(value string, year, month, day int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrMalformedTimeValue, value)
	}
	return t, nil
}
