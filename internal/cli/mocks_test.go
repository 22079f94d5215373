package cli_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/alnah/go-chunkscribe/internal/cli"
	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func(path string) (*config.Config, string, bool, error)

	mu    sync.Mutex
	paths []string
}

func (m *mockConfigLoader) Load(path string) (*config.Config, string, bool, error) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	cfg := config.Default()
	return &cfg, "/home/test/.config/chunkscribe/config.toml", false, nil
}

func (m *mockConfigLoader) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// ---------------------------------------------------------------------------
// Mock RunnerFactory + Runner
// ---------------------------------------------------------------------------

type mockRunnerFactory struct {
	NewRunnerFunc func(ctx context.Context, cfg *config.Config) (cli.Runner, error)
	runner        *mockRunner

	mu         sync.Mutex
	configs    []*config.Config
	closeCalls int
}

func (m *mockRunnerFactory) NewRunner(ctx context.Context, cfg *config.Config, _ *slog.Logger) (cli.Runner, func() error, error) {
	m.mu.Lock()
	m.configs = append(m.configs, cfg)
	m.mu.Unlock()

	closeFn := func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.closeCalls++
		return nil
	}

	if m.NewRunnerFunc != nil {
		r, err := m.NewRunnerFunc(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return r, closeFn, nil
	}
	if m.runner == nil {
		m.runner = &mockRunner{}
	}
	return m.runner, closeFn, nil
}

func (m *mockRunnerFactory) Configs() []*config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*config.Config(nil), m.configs...)
}

func (m *mockRunnerFactory) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

type runCall struct {
	SourcePath string
	Config     pipeline.Config
}

type mockRunner struct {
	RunFunc func(ctx context.Context, src string, cfg pipeline.Config, progress pipeline.ProgressFunc) pipeline.Result

	mu    sync.Mutex
	calls []runCall
}

func (m *mockRunner) Run(ctx context.Context, src string, cfg pipeline.Config, progress pipeline.ProgressFunc) pipeline.Result {
	m.mu.Lock()
	m.calls = append(m.calls, runCall{SourcePath: src, Config: cfg})
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, src, cfg, progress)
	}
	progress(1, 2)
	progress(2, 2)
	return pipeline.Result{Text: "first part\nsecond part\n", Chunks: 2, Languages: []string{"en"}}
}

func (m *mockRunner) Calls() []runCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]runCall(nil), m.calls...)
}

// ---------------------------------------------------------------------------
// Mock ServerFactory + Server
// ---------------------------------------------------------------------------

type mockServerFactory struct {
	server *mockServer

	mu      sync.Mutex
	runners []cli.Runner
}

func (m *mockServerFactory) NewServer(r cli.Runner, _ *config.Config, _ *slog.Logger) cli.Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runners = append(m.runners, r)
	if m.server == nil {
		m.server = &mockServer{}
	}
	return m.server
}

func (m *mockServerFactory) Runners() []cli.Runner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cli.Runner(nil), m.runners...)
}

type mockServer struct {
	ListenFunc func(ctx context.Context, addr string) error

	mu    sync.Mutex
	addrs []string
}

func (m *mockServer) ListenAndServe(ctx context.Context, addr string) error {
	m.mu.Lock()
	m.addrs = append(m.addrs, addr)
	m.mu.Unlock()
	if m.ListenFunc != nil {
		return m.ListenFunc(ctx, addr)
	}
	return nil
}

func (m *mockServer) Addrs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.addrs...)
}

var errMock = errors.New("mock failure")
