package translate

import "errors"

var (
	// ErrCollectionNotFound is returned when a referenced collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidDateTime is returned when datetime parsing fails.
	ErrInvalidDateTime = errors.New("invalid datetime format")

	// ErrInvalidRecord is returned when a record cannot be expressed as an item.
	ErrInvalidRecord = errors.New("invalid availability record")
)
