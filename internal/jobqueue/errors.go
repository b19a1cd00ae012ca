package jobqueue

import "errors"

// Sentinel errors for queue operations. Checkable with errors.Is().
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrJobAlreadyExists = errors.New("job already queued or running for this path")
)
