package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
)

// Result is the outcome of one run. Text is set only when Err is nil: a
// failed run never exposes a partial transcript.
type Result struct {
	Text string

	// Chunks is the number of planned chunks; on success it equals the
	// number of paragraphs in Text.
	Chunks int

	// Duration is the probed length of the source.
	Duration time.Duration

	// Languages lists the distinct languages reported by the engine, in
	// order of first appearance.
	Languages []string

	Elapsed time.Duration
	Err     error
}

// OK reports whether the run completed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Reason returns the single user-visible failure message, or "" on success.
func (r Result) Reason() string {
	switch {
	case r.Err == nil:
		return ""
	case errors.Is(r.Err, ErrCanceled):
		return ErrCanceled.Error()
	case isTimeout(r.Err):
		return ErrTimeout.Error()
	default:
		return r.Err.Error()
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ffmpeg.ErrTimeout) ||
		errors.Is(err, apierr.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
