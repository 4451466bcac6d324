package domain

import "errors"

var (
	// ErrNotFound means no task exists with the requested id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument covers malformed or missing input.
	ErrInvalidArgument = errors.New("invalid argument")
)
