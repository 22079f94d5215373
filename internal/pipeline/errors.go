package pipeline

import "errors"

// ErrCanceled indicates the run was stopped by its caller.
var ErrCanceled = errors.New("transcription canceled")

// ErrTimeout indicates a step exceeded its configured time budget.
var ErrTimeout = errors.New("operation timed out")

// ErrInvalidConfig indicates a Config outside the supported ranges.
var ErrInvalidConfig = errors.New("invalid run configuration")
