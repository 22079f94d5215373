package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Models caches one Engine per size for the lifetime of the process.
// Concurrent first requests for the same size share a single load.
type Models struct {
	load Loader

	mu      sync.RWMutex
	engines map[Size]Engine
	closed  bool

	group singleflight.Group
}

// NewModels creates an empty cache that prepares engines with load.
func NewModels(load Loader) *Models {
	return &Models{
		load:    load,
		engines: make(map[Size]Engine),
	}
}

// Get returns the engine for size, loading it on first use.
// A failed load is not cached; the next Get tries again.
func (m *Models) Get(ctx context.Context, size Size) (Engine, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSize, size)
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	if e, ok := m.engines[size]; ok {
		m.mu.RUnlock()
		return e, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.group.Do(size.String(), func() (any, error) {
		m.mu.RLock()
		if e, ok := m.engines[size]; ok {
			m.mu.RUnlock()
			return e, nil
		}
		m.mu.RUnlock()

		e, err := m.load(ctx, size)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			_ = e.Close()
			return nil, ErrClosed
		}
		m.engines[size] = e
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Engine), nil
}

// Loaded reports which sizes currently have an engine.
func (m *Models) Loaded() []Size {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sizes []Size
	for _, s := range Sizes() {
		if _, ok := m.engines[s]; ok {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// Close releases every cached engine. Later Get calls fail with ErrClosed.
func (m *Models) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	for size, e := range m.engines {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s engine: %w", size, err))
		}
	}
	clear(m.engines)
	return errors.Join(errs...)
}
