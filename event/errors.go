package event

import "errors"

// Sentinel errors for payload access.
var (
	// ErrArgRange is returned when a positional index is out of range.
	ErrArgRange = errors.New("event arg index out of range")

	// ErrNoKwarg is returned when a keyword payload key is absent.
	ErrNoKwarg = errors.New("event kwarg not present")

	// ErrBadIndex is returned when Value is given an index that is
	// neither an int nor a string.
	ErrBadIndex = errors.New("event index must be int or string")
)
