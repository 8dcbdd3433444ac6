package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobNotFound is returned when a job lookup misses.
	ErrJobNotFound = errors.New("job not found")
	// ErrMessageNotFound is returned when a message lookup misses.
	ErrMessageNotFound = errors.New("message not found")
	// ErrInvalidTransition is returned when a guarded status update is asked
	// to move a job backwards or into an unknown status.
	ErrInvalidTransition = errors.New("invalid job status transition")
)
