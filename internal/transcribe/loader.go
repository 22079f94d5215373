package transcribe

import (
	"context"
	"fmt"
)

// Backend names an Engine implementation.
type Backend string

// Supported backends.
const (
	BackendOpenAI  Backend = "openai"
	BackendWhisper Backend = "whisper"
)

// ParseBackend validates s. An empty string yields BackendWhisper.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendWhisper:
		return BackendWhisper, nil
	case BackendOpenAI:
		return BackendOpenAI, nil
	default:
		return "", fmt.Errorf("%w: %q (use openai or whisper)", ErrUnknownBackend, s)
	}
}

// LoaderConfig selects and configures the backend used by NewLoader.
type LoaderConfig struct {
	Backend Backend

	// OpenAI is used by BackendOpenAI.
	OpenAI OpenAIConfig

	// WhisperBinary and Device are used by BackendWhisper.
	WhisperBinary string
	Device        string
	TempDir       string
}

// ModelFor names the model that size loads on the configured backend.
func (c LoaderConfig) ModelFor(size Size) string {
	if b, _ := ParseBackend(string(c.Backend)); b == BackendOpenAI {
		return c.OpenAI.ModelFor(size)
	}
	return size.String()
}

// Collapsed reports whether every size loads the same model, which makes
// the size selector meaningless. This is the case against api.openai.com,
// where only whisper-1 is served.
func (c LoaderConfig) Collapsed() bool {
	sizes := Sizes()
	first := c.ModelFor(sizes[0])
	for _, s := range sizes[1:] {
		if c.ModelFor(s) != first {
			return false
		}
	}
	return true
}

// NewLoader returns a Loader for cfg.Backend.
func NewLoader(cfg LoaderConfig) (Loader, error) {
	backend, err := ParseBackend(string(cfg.Backend))
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendWhisper:
		return func(_ context.Context, size Size) (Engine, error) {
			e, err := LoadWhisper(cfg.WhisperBinary, size,
				WithWhisperDevice(cfg.Device),
				WithWhisperTempRoot(cfg.TempDir))
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	default:
		return func(ctx context.Context, size Size) (Engine, error) {
			e, err := LoadOpenAI(ctx, cfg.OpenAI, size)
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	}
}
