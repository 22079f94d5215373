package cli_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/cli"
	"github.com/alnah/go-chunkscribe/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader  *mockConfigLoader
	runnerFactory *mockRunnerFactory
	serverFactory *mockServerFactory
	stdout        *syncBuffer
	stderr        *syncBuffer
}

// testEnv creates an Env with all dependencies mocked and stdout/stderr
// captured. Stderr is never a terminal.
func testEnv() (*cli.Env, *testMocks) {
	m := &testMocks{
		configLoader:  &mockConfigLoader{},
		runnerFactory: &mockRunnerFactory{},
		serverFactory: &mockServerFactory{},
		stdout:        &syncBuffer{},
		stderr:        &syncBuffer{},
	}
	env := &cli.Env{
		Stdout:        m.stdout,
		Stderr:        m.stderr,
		IsTerminal:    func(io.Writer) bool { return false },
		ConfigLoader:  m.configLoader,
		RunnerFactory: m.runnerFactory,
		ServerFactory: m.serverFactory,
	}
	return env, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// createCmd creates a cobra.Command carrying ctx, as the run functions
// expect.
func createCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	return cmd
}

// createTestMediaFile creates a temporary media file for testing.
// Returns the file path. The file is automatically cleaned up after the test.
func createTestMediaFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake media content"), 0644); err != nil {
		t.Fatalf("failed to create test media file: %v", err)
	}
	return path
}

// configWithOutputDir returns a ConfigLoader whose config writes
// transcripts into dir.
func configWithOutputDir(dir string) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func(string) (*config.Config, string, bool, error) {
			cfg := config.Default()
			cfg.Output.Dir = dir
			return &cfg, filepath.Join(dir, "config.toml"), true, nil
		},
	}
}
