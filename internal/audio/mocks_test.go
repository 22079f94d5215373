package audio_test

import (
	"context"
	"os"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Mocks for audio interfaces
// ---------------------------------------------------------------------------

type mockCall struct {
	name string
	args []string
}

type mockCommandRunner struct {
	mu      sync.Mutex
	runFunc func(ctx context.Context, name string, args []string) ([]byte, []byte, error)
	calls   []mockCall
}

func (m *mockCommandRunner) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, mockCall{name: name, args: append([]string(nil), args...)})
	m.mu.Unlock()
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args)
	}
	return nil, nil, nil
}

func (m *mockCommandRunner) Calls() []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockCall(nil), m.calls...)
}

type mockFileInfo struct {
	size int64
}

func (m mockFileInfo) Name() string       { return "chunk" }
func (m mockFileInfo) Size() int64        { return m.size }
func (m mockFileInfo) Mode() os.FileMode  { return 0o644 }
func (m mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m mockFileInfo) IsDir() bool        { return false }
func (m mockFileInfo) Sys() any           { return nil }

type mockFileStatter struct {
	size int64
	err  error
}

func (m *mockFileStatter) Stat(string) (os.FileInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return mockFileInfo{size: m.size}, nil
}

type mockFileRemover struct {
	mu      sync.Mutex
	removed []string
}

func (m *mockFileRemover) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, name)
	return nil
}

func (m *mockFileRemover) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
