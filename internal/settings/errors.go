package settings

import "errors"

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("settings: key not found")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("settings: key cannot be empty")

	// ErrInvalidValue is returned when a stored value cannot be decoded.
	ErrInvalidValue = errors.New("settings: stored value has the wrong type")
)
