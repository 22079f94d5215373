package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// minMajorVersion is the oldest ffmpeg release known to stream-copy
// reliably with -ss before -i.
const minMajorVersion = 4

// runFn runs a command and returns its stdout and stderr.
type runFn func(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)

// Executor runs external media tools.
type Executor struct {
	run runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunFunc replaces process execution (for testing).
func WithRunFunc(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor backed by os/exec.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{run: execRun}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes name with args. Output streams are returned even when the
// command fails, since ffmpeg reports diagnostics on stderr. A context
// deadline is reported as ErrTimeout.
func (e *Executor) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	stdout, stderr, err := e.run(ctx, name, args)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout, stderr, fmt.Errorf("%s: %w", name, ErrTimeout)
	}
	return stdout, stderr, err
}

func execRun(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	// #nosec G204 -- binaries come from Resolver, args are built internally
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CheckVersion logs a warning when ffmpeg is older than the supported
// minimum. It returns false when the version could not be determined.
func (e *Executor) CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger) bool {
	stdout, _, err := e.Run(ctx, ffmpegPath, []string{"-version"})
	if err != nil && len(stdout) == 0 {
		return false
	}

	major, ok := parseMajorVersion(string(stdout))
	if !ok {
		return false
	}
	if major < minMajorVersion && logger != nil {
		logger.Warn("ffmpeg is older than recommended",
			"version", major, "minimum", minMajorVersion)
	}
	return true
}

// parseMajorVersion reads "ffmpeg version 6.1.1 ..." or "ffmpeg version n6.1 ...".
func parseMajorVersion(output string) (int, bool) {
	first, _, _ := strings.Cut(output, "\n")
	if first == "" {
		return 0, false
	}
	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err == nil {
		return major, true
	}
	if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err == nil {
		return major, true
	}
	return 0, false
}
