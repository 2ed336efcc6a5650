package wapor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when the catalog has no such cube or dimension.
	ErrNotFound = errors.New("not found")

	// ErrNoSession is returned by authenticated calls on a client without a session.
	ErrNoSession = errors.New("no authenticated session configured")

	// ErrNoMeasure is returned when a cube declares no measure.
	ErrNoMeasure = errors.New("cube declares no measure")

	// ErrInvalidLocationType is returned for location filters other than BASIN and COUNTRY.
	ErrInvalidLocationType = errors.New("invalid location type")
)

// APIError is a non-2xx reply from the WaPOR API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Code = payload.Error
		e.Message = payload.Message
	}
	if e.Code == "" {
		e.Code = http.StatusText(status)
	}
	if e.Message == "" {
		e.Message = string(body)
	}
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("WaPOR API returned status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is makes 404 replies match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
