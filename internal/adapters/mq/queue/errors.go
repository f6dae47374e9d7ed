package queue

import "errors"

// Enqueue failures.
var (
	ErrFull   = errors.New("queue full")
	ErrClosed = errors.New("queue closed")
)
