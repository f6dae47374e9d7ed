package service

import "errors"

// Service lifecycle errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrShuttingDown = errors.New("service shutting down")
	ErrStopped      = errors.New("service stopped; create a new one to start again")
)
