package bus

import "errors"

// Domain-specific errors for bus operations.
var (
	// ErrInvalidTopic is returned for an empty topic or one containing wildcards.
	ErrInvalidTopic = errors.New("bus: invalid topic")

	// ErrInvalidPattern is returned when a subscription pattern misuses wildcards.
	ErrInvalidPattern = errors.New("bus: invalid pattern")

	// ErrNilHandler is returned when subscribing without a handler.
	ErrNilHandler = errors.New("bus: handler cannot be nil")

	// ErrQueueFull is returned when the pending queue is at capacity.
	ErrQueueFull = errors.New("bus: queue full")

	// ErrStopped is returned by Do after the loop has exited.
	ErrStopped = errors.New("bus: stopped")
)
