package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// rangeLayout is the date layout inside the query service's range literal.
const rangeLayout = time.DateOnly

// ParseBound parses one end of a time range. Any layout dateparse
// recognizes is accepted ("2015-01-01", "2015-01-01T00:00:00Z",
// "01/02/2015", ...). Zone-less values are taken as UTC.
func ParseBound(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty time", ErrInvalidDateTime)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDateTime, s, err)
	}
	return t.UTC(), nil
}

// FormatSTACTime formats a time.Time as RFC3339 for STAC.
// STAC uses RFC3339 format: "2023-06-15T14:00:00Z"
func FormatSTACTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatRange renders the inclusive range literal the query service expects,
// e.g. "[2015-01-01,2016-01-01]".
func FormatRange(start, end time.Time) string {
	return "[" + start.UTC().Format(rangeLayout) + "," + end.UTC().Format(rangeLayout) + "]"
}

// ParseDateTimeInterval parses a STAC datetime parameter which can be:
// - A single datetime: "2023-06-15T14:00:00Z" or "2023-06-15"
// - An open-ended interval: "../2023-06-15" or "2023-06-15/.."
// - A closed interval: "2023-01-01/2023-12-31"
// Returns start and end times. Either may be nil for open-ended intervals.
func ParseDateTimeInterval(datetime string) (*time.Time, *time.Time, error) {
	datetime = strings.TrimSpace(datetime)
	if datetime == "" {
		return nil, nil, nil
	}

	// Single datetime - use as both start and end
	if strings.Count(datetime, "/") != 1 {
		t, err := ParseBound(datetime)
		if err != nil {
			return nil, nil, err
		}
		return &t, &t, nil
	}

	startStr, endStr, _ := strings.Cut(datetime, "/")

	start, err := parseOpenBound(startStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start datetime: %w", err)
	}
	end, err := parseOpenBound(endStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end datetime: %w", err)
	}

	if start != nil && end != nil && start.After(*end) {
		return nil, nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateTime, FormatSTACTime(*start), FormatSTACTime(*end))
	}

	return start, end, nil
}

func parseOpenBound(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == ".." {
		return nil, nil
	}
	t, err := ParseBound(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
