package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidLimit      = errors.New("invalid list limit")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateID       = errors.New("duplicate record id")
	ErrUnknownDriver     = errors.New("unknown store driver")
)
