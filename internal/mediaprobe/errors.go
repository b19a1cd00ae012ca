package mediaprobe

import "errors"

// Sentinel errors for probe invocation and parsing, checked with errors.Is.
var (
	ErrToolMissing  = errors.New("probe: tool not found")
	ErrSpawn        = errors.New("probe: failed to spawn subprocess")
	ErrTimeout      = errors.New("probe: subprocess timed out")
	ErrNonZeroExit  = errors.New("probe: subprocess exited non-zero")
	ErrParse        = errors.New("probe: output not in expected shape")
	ErrEmptyOutput  = errors.New("probe: empty output")
	ErrNoValidData  = errors.New("probe: no valid records in output")
)
