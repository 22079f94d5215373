// Package web serves the single-page transcription UI and its JSON API.
//
// Each upload starts an isolated run with its own directory and context;
// progress is pushed to browsers over a websocket.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/alnah/go-chunkscribe/internal/logging"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
)

// DefaultRetention is how long finished runs stay downloadable.
const DefaultRetention = time.Hour

// runner executes one transcription. *pipeline.Runner satisfies it.
type runner interface {
	Run(ctx context.Context, sourcePath string, cfg pipeline.Config, progress pipeline.ProgressFunc) pipeline.Result
}

var _ runner = (*pipeline.Runner)(nil)

// Server owns the fiber app and the run registry.
type Server struct {
	runner    runner
	defaults  pipeline.Config
	bodyLimit int64
	tempRoot  string
	logger    *slog.Logger
	newID     func() string

	runs *registry
	app  *fiber.App

	// base is canceled on shutdown; every run context derives from it.
	base     context.Context
	stopRuns context.CancelFunc
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithDefaults sets the form defaults and the values used for missing fields.
func WithDefaults(cfg pipeline.Config) Option {
	return func(s *Server) { s.defaults = cfg }
}

// WithBodyLimit sets the maximum request size in bytes.
func WithBodyLimit(n int64) Option {
	return func(s *Server) { s.bodyLimit = n }
}

// WithRetention sets how long finished runs are kept.
func WithRetention(d time.Duration) Option {
	return func(s *Server) { s.runs.retention = d }
}

// WithTempRoot sets the parent of upload directories. Empty means os.TempDir.
func WithTempRoot(dir string) Option {
	return func(s *Server) { s.tempRoot = dir }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the time source used for retention (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.runs.now = now }
}

// WithIDFunc sets the run identifier generator (for testing).
func WithIDFunc(fn func() string) Option {
	return func(s *Server) { s.newID = fn }
}

// New creates a Server that executes runs with r.
func New(r runner, opts ...Option) *Server {
	base, stop := context.WithCancel(context.Background())
	s := &Server{
		runner:    r,
		defaults:  pipeline.DefaultConfig(),
		bodyLimit: 2048 << 20,
		logger:    logging.NewNop(),
		newID:     uuid.NewString,
		runs:      newRegistry(DefaultRetention, time.Now),
		base:      base,
		stopRuns:  stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.app = s.newApp()
	return s
}

// App returns the fiber app, for serving or app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve accepts connections on ln until ctx is done, then cancels running
// transcriptions and waits for them to clean up.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.janitor(ctx)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()

	s.logger.Info("web ui listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		s.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Shutdown stops the HTTP server, cancels all runs and waits for their
// goroutines to remove uploads.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.stopRuns()
	s.runs.cancelAll()
	s.Wait()
	return err
}

// Wait blocks until every started run has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// janitor evicts expired runs until ctx is done.
func (s *Server) janitor(ctx context.Context) {
	interval := s.runs.retention / 4
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.runs.evict(); n > 0 {
				s.logger.Debug("evicted finished runs", "count", n)
			}
		}
	}
}

// upload is a validated run request.
type upload struct {
	filename string
	size     int64
	dir      string
	path     string
	cfg      pipeline.Config
}

// start registers a run and transcribes the upload on its own goroutine.
// The upload directory is removed when the run ends, whatever the outcome.
func (s *Server) start(u upload) *run {
	id := s.newID()
	ctx, cancel := context.WithCancel(logging.WithRunID(s.base, id))
	r := newRun(id, u.filename, u.size, cancel)
	s.runs.evict()
	s.runs.add(r)

	log := logging.WithContext(ctx, s.logger)
	log.Info("run accepted",
		"filename", u.filename,
		"size", u.size,
		"model", u.cfg.Size,
		"language", u.cfg.Language,
		"chunk_length", u.cfg.ChunkLength)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer func() {
			if err := os.RemoveAll(u.dir); err != nil {
				log.Warn("upload cleanup failed", "dir", u.dir, "error", err)
			}
		}()

		res := s.runner.Run(ctx, u.path, u.cfg, r.progress)
		r.finish(res, s.runs.now())
	}()
	return r
}

// saveDir creates the directory that holds one upload.
func (s *Server) saveDir() (string, error) {
	dir, err := os.MkdirTemp(s.tempRoot, "chunkscribe-upload-*")
	if err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	return dir, nil
}

func uploadPath(dir, filename string) string {
	return filepath.Join(dir, filename)
}

func isCanceled(err error) bool {
	return errors.Is(err, pipeline.ErrCanceled)
}
