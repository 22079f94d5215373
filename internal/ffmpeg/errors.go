package ffmpeg

import "errors"

// ErrNotFound indicates the ffmpeg binary could not be located.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrTimeout indicates an external tool did not finish before its deadline.
var ErrTimeout = errors.New("operation timed out")
