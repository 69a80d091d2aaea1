package transport

import "errors"

var (
	// ErrBusRequired is returned when Options.Bus is nil.
	ErrBusRequired = errors.New("transport: bus is required")

	// ErrBrokerRequired is returned when Options.Broker is nil.
	ErrBrokerRequired = errors.New("transport: broker is required")

	// ErrInvalidPattern is returned for an empty outbound or inbound pattern.
	ErrInvalidPattern = errors.New("transport: invalid topic pattern")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("transport: relay already started")
)
