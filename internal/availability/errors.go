package availability

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensionCount is returned when a cube declares a number of
	// dimensions other than 1, 2 or 3.
	ErrInvalidDimensionCount = errors.New("invalid dimension count")

	// ErrUnexpectedDimension is returned when a categorical axis slot does not
	// hold the expected SEASON/STAGE code.
	ErrUnexpectedDimension = errors.New("unexpected dimension")

	// ErrMissingMemberValues is returned when a categorical axis is declared but
	// no member values were supplied for it.
	ErrMissingMemberValues = errors.New("missing member values")

	// ErrUnsupportedGranularity is returned when the time axis code is not one
	// of YEAR, ANNUAL, DEKAD or DAY.
	ErrUnsupportedGranularity = errors.New("unsupported granularity")

	// ErrMalformedTimeValue is returned when a time value does not match the
	// layout expected for the cube's granularity.
	ErrMalformedTimeValue = errors.New("malformed time value")

	// ErrMalformedItem is returned when a response item has fewer cells than
	// the query shape requires or carries no raster identifier.
	ErrMalformedItem = errors.New("malformed response item")
)

// UpstreamQueryError is returned when the query service rejects a query or
// cannot be reached. Code and Message are copied verbatim from the service's
// error body when one is available.
type UpstreamQueryError struct {
	Code    string
	Message string
	Err     error
}

func (e *UpstreamQueryError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("upstream query failed: %s: %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("upstream query failed: %v", e.Err)
	default:
		return "upstream query failed: " + e.Message
	}
}

func (e *UpstreamQueryError) Unwrap() error {
	return e.Err
}
