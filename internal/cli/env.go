package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/logging"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
	"github.com/alnah/go-chunkscribe/internal/web"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout     io.Writer
	Stderr     io.Writer
	IsTerminal func(w io.Writer) bool

	// ConfigPath is the --config flag value. Empty means the default location.
	ConfigPath string

	// Factories for domain objects
	ConfigLoader  ConfigLoader
	RunnerFactory RunnerFactory
	ServerFactory ServerFactory
}

// ConfigLoader loads the effective configuration.
type ConfigLoader interface {
	Load(path string) (cfg *config.Config, resolved string, exists bool, err error)
}

// Runner executes one transcription. *pipeline.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, sourcePath string, cfg pipeline.Config, progress pipeline.ProgressFunc) pipeline.Result
}

// RunnerFactory wires tools and engines into a Runner. The returned close
// function releases loaded models.
type RunnerFactory interface {
	NewRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Runner, func() error, error)
}

// Server serves the web UI until ctx is done.
type Server interface {
	ListenAndServe(ctx context.Context, addr string) error
}

// ServerFactory creates the web server around a Runner.
type ServerFactory interface {
	NewServer(r Runner, cfg *config.Config, logger *slog.Logger) Server
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithRunnerFactory sets the runner factory.
func WithRunnerFactory(f RunnerFactory) EnvOption {
	return func(e *Env) {
		e.RunnerFactory = f
	}
}

// WithServerFactory sets the server factory.
func WithServerFactory(f ServerFactory) EnvOption {
	return func(e *Env) {
		e.ServerFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		IsTerminal:    isTerminal,
		ConfigLoader:  &defaultConfigLoader{},
		RunnerFactory: &defaultRunnerFactory{},
		ServerFactory: &defaultServerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// loadConfig loads the configuration named by --config.
func (e *Env) loadConfig() (*config.Config, error) {
	cfg, _, _, err := e.ConfigLoader.Load(e.ConfigPath)
	return cfg, err
}

// newLogger builds the process logger from the logging section. Logs go
// to stderr so stdout stays clean for command output.
func (e *Env) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: e.Stderr,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(path string) (*config.Config, string, bool, error) {
	return config.Load(path)
}

// defaultRunnerFactory resolves ffmpeg/ffprobe, then builds the prober,
// extractor and model cache behind a pipeline.Runner.
type defaultRunnerFactory struct{}

func (defaultRunnerFactory) NewRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Runner, func() error, error) {
	tools, err := ffmpeg.NewResolver(ffmpeg.WithConfiguredPaths(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)).Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}

	versionCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	ffmpeg.NewExecutor().CheckVersion(versionCtx, tools.FFmpeg, logger)
	cancel()
	if tools.FFprobe == "" {
		logger.Warn("ffprobe not found, durations will be read from ffmpeg output")
	}

	prober, err := audio.NewProber(tools)
	if err != nil {
		return nil, nil, err
	}
	extractor, err := audio.NewExtractor(tools.FFmpeg)
	if err != nil {
		return nil, nil, err
	}

	lc := cfg.LoaderConfig()
	load, err := transcribe.NewLoader(lc)
	if err != nil {
		return nil, nil, err
	}
	if lc.Collapsed() {
		logger.Warn("every model size maps to the same model, size selection has no effect",
			"backend", lc.Backend, "model", lc.ModelFor(transcribe.SizeBase))
	}
	models := transcribe.NewModels(load)

	runner := pipeline.NewRunner(prober, extractor, models,
		pipeline.WithTimeouts(cfg.StepTimeouts()),
		pipeline.WithTempRoot(cfg.Server.TempDir),
		pipeline.WithLogger(logger),
	)
	return runner, models.Close, nil
}

// defaultServerFactory implements ServerFactory with the web package.
type defaultServerFactory struct{}

func (defaultServerFactory) NewServer(r Runner, cfg *config.Config, logger *slog.Logger) Server {
	return web.New(r,
		web.WithDefaults(cfg.RunDefaults()),
		web.WithBodyLimit(cfg.MaxUploadBytes()),
		web.WithRetention(cfg.Server.RunRetention.Duration),
		web.WithTempRoot(cfg.Server.TempDir),
		web.WithLogger(logger),
	)
}

// Compile-time interface verification.
var (
	_ ConfigLoader  = (*defaultConfigLoader)(nil)
	_ RunnerFactory = (*defaultRunnerFactory)(nil)
	_ ServerFactory = (*defaultServerFactory)(nil)
	_ Runner        = (*pipeline.Runner)(nil)
	_ Server        = (*web.Server)(nil)
)
