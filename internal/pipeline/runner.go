// Package pipeline drives one transcription run: probe the source once, then
// extract, transcribe and discard each chunk in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/logging"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// ProgressFunc is called after each chunk with the number of chunks done
// and the total. It runs on the run's goroutine and must not block.
type ProgressFunc func(done, total int)

// Timeouts bounds each external step. Zero disables a bound.
type Timeouts struct {
	Probe   time.Duration
	Extract time.Duration

	// Transcribe is a fixed budget per chunk. When zero, TranscribeRatio
	// scales the budget with the requested chunk length instead.
	Transcribe      time.Duration
	TranscribeRatio float64
}

// transcribeFor returns the transcription budget for a chunk of length d.
func (t Timeouts) transcribeFor(d time.Duration) time.Duration {
	if t.Transcribe > 0 {
		return t.Transcribe
	}
	if t.TranscribeRatio > 0 {
		return time.Duration(t.TranscribeRatio * float64(d))
	}
	return 0
}

// prober reports the duration of a media file. *audio.Prober satisfies it.
type prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// extractor writes one chunk artifact. *audio.Extractor satisfies it.
type extractor interface {
	Extract(ctx context.Context, src, dst string, c audio.Chunk) error
}

// engines provides a loaded engine per size. *transcribe.Models satisfies it.
type engines interface {
	Get(ctx context.Context, size transcribe.Size) (transcribe.Engine, error)
}

// fileRemover deletes files.
type fileRemover interface {
	Remove(name string) error
}

var (
	_ prober    = (*audio.Prober)(nil)
	_ extractor = (*audio.Extractor)(nil)
	_ engines   = (*transcribe.Models)(nil)
)

type osFileRemover struct{}

func (osFileRemover) Remove(name string) error { return os.Remove(name) }

// Runner executes runs. A Runner is safe for concurrent use; each Run gets
// its own temporary directory.
type Runner struct {
	probe    prober
	extract  extractor
	engines  engines
	timeouts Timeouts
	tempRoot string
	files    fileRemover
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeouts sets per-step time budgets.
func WithTimeouts(t Timeouts) Option {
	return func(r *Runner) { r.timeouts = t }
}

// WithTempRoot sets the parent of per-run directories. Empty means os.TempDir.
func WithTempRoot(dir string) Option {
	return func(r *Runner) { r.tempRoot = dir }
}

// WithLogger sets the logger. Runs add their run_id from the context.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithFileRemover sets the artifact remover (for testing).
func WithFileRemover(f fileRemover) Option {
	return func(r *Runner) { r.files = f }
}

// NewRunner wires the probe, extractor and engine cache into a Runner.
func NewRunner(p prober, x extractor, e engines, opts ...Option) *Runner {
	r := &Runner{
		probe:   p,
		extract: x,
		engines: e,
		files:   osFileRemover{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run transcribes sourcePath. Chunks are processed strictly in order and
// never retried; the first failure aborts the run and discards all text.
// progress may be nil.
func (r *Runner) Run(ctx context.Context, sourcePath string, cfg Config, progress ProgressFunc) Result {
	start := time.Now()
	log := logging.WithContext(ctx, r.logger).With(logging.FieldComponent, "pipeline")

	res := r.run(ctx, log, sourcePath, cfg, progress)
	res.Elapsed = time.Since(start)

	if res.OK() {
		log.Info("run completed",
			"chunks", res.Chunks,
			"languages", res.Languages,
			"elapsed", res.Elapsed.Round(time.Millisecond))
	} else {
		log.Error("run failed", "error", res.Err, "elapsed", res.Elapsed.Round(time.Millisecond))
	}
	return res
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, src string, cfg Config, progress ProgressFunc) Result {
	if err := cfg.Validate(); err != nil {
		return Result{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Result{Err: stepError(ctx, "start", err)}
	}
	if _, err := os.Stat(src); err != nil {
		return Result{Err: fmt.Errorf("%w: %s", audio.ErrFileNotFound, src)}
	}

	dir, err := os.MkdirTemp(r.tempRoot, "chunkscribe-run-*")
	if err != nil {
		return Result{Err: fmt.Errorf("create run directory: %w", err)}
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("run directory cleanup failed", "dir", dir, "error", err)
		}
	}()

	total, err := r.probeDuration(ctx, src)
	if err != nil {
		return Result{Err: stepError(ctx, "probe", err)}
	}
	chunks, err := audio.Plan(total, cfg.ChunkLength)
	if err != nil {
		return Result{Duration: total, Err: err}
	}
	res := Result{Chunks: len(chunks), Duration: total}

	log.Info("run started",
		"source", filepath.Base(src),
		"duration", total.Round(time.Second),
		"chunks", len(chunks),
		"model", cfg.Size,
		"language", cfg.Language)

	engine, err := r.engines.Get(ctx, cfg.Size)
	if err != nil {
		res.Err = stepError(ctx, "load model", err)
		return res
	}

	opts := transcribe.Options{Language: lang.Hint(cfg.Language)}
	var text strings.Builder
	var languages []string

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			res.Err = stepError(ctx, c.String(), err)
			return res
		}

		chunkStart := time.Now()
		artifact := filepath.Join(dir, audio.ArtifactName(c.Index, src))

		tr, err := r.processChunk(ctx, log, engine, src, artifact, c, opts)
		if err != nil {
			res.Err = err
			return res
		}

		text.WriteString(paragraph(tr.Text))
		text.WriteByte('\n')
		languages = appendUnique(languages, tr.Language)

		log.Info("chunk transcribed",
			logging.FieldChunk, c.Index,
			"language", tr.Language,
			"elapsed", time.Since(chunkStart).Round(time.Millisecond))

		if progress != nil {
			progress(c.Index+1, len(chunks))
		}
	}

	if len(languages) > 1 {
		log.Warn("chunks reported different languages", "languages", languages)
	}

	res.Text = text.String()
	res.Languages = languages
	return res
}

// processChunk extracts, transcribes and deletes one artifact. The artifact
// is removed whatever the outcome.
func (r *Runner) processChunk(
	ctx context.Context,
	log *slog.Logger,
	engine transcribe.Engine,
	src, artifact string,
	c audio.Chunk,
	opts transcribe.Options,
) (transcribe.Result, error) {
	defer r.removeArtifact(log, artifact)

	extractCtx, cancel := withTimeout(ctx, r.timeouts.Extract)
	err := r.extract.Extract(extractCtx, src, artifact, c)
	cancel()
	if err != nil {
		return transcribe.Result{}, stepError(ctx, "extract "+c.String(), err)
	}

	transcribeCtx, cancel := withTimeout(ctx, r.timeouts.transcribeFor(c.Length))
	tr, err := engine.Transcribe(transcribeCtx, artifact, opts)
	cancel()
	if err != nil {
		return transcribe.Result{}, stepError(ctx, "transcribe "+c.String(), err)
	}
	return tr, nil
}

func (r *Runner) probeDuration(ctx context.Context, src string) (time.Duration, error) {
	probeCtx, cancel := withTimeout(ctx, r.timeouts.Probe)
	defer cancel()
	return r.probe.Duration(probeCtx, src)
}

func (r *Runner) removeArtifact(log *slog.Logger, path string) {
	if err := r.files.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("artifact cleanup failed", "path", path, "error", err)
	}
}

// paragraph trims text and folds its line breaks into single spaces, so
// every chunk contributes exactly one line to the transcript.
func paragraph(text string) string {
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, " ")
}

// stepError labels err with the failing step and classifies cancellation
// and timeouts. Cancellation of the run's own context wins over whatever
// the step reported.
func stepError(ctx context.Context, step string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", step, ErrCanceled)
	}
	if isTimeout(err) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%s: %w: %w", step, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
