// Package apierr holds the error sentinels shared by HTTP-backed speech engines
// and a small backoff helper used while probing them.
//
// Adapters classify provider failures at their boundary with
// fmt.Errorf("%s: %w", msg, sentinel) so callers only ever test with errors.Is.
package apierr

import (
	"context"
	"errors"
)

var (
	// ErrRateLimit indicates the provider throttled the request (transient).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the account ran out of quota (needs user action).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates the request or the server timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a 4xx response not covered by another sentinel.
	ErrBadRequest = errors.New("bad request")

	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")
)

// Retryable reports whether err is worth another attempt.
// Cancellation always wins over classification.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServer)
}
