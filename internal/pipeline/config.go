package pipeline

import (
	"fmt"
	"time"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// Chunk length bounds offered to users.
const (
	MinChunkLength     = 5 * time.Minute
	MaxChunkLength     = 60 * time.Minute
	DefaultChunkLength = 30 * time.Minute
)

// Config is the per-run configuration. It is immutable once a run starts.
type Config struct {
	Size transcribe.Size

	// Language is an ISO 639-1 hint. Empty (or "auto") means detect per chunk.
	Language string

	ChunkLength time.Duration
}

// DefaultConfig returns base model, automatic language and 30 minute chunks.
func DefaultConfig() Config {
	return Config{
		Size:        transcribe.DefaultSize,
		ChunkLength: DefaultChunkLength,
	}
}

// Validate checks every field and wraps the owning package's sentinel.
func (c Config) Validate() error {
	if !c.Size.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, transcribe.ErrUnsupportedSize, c.Size)
	}
	if err := lang.Validate(c.Language); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.ChunkLength < MinChunkLength || c.ChunkLength > MaxChunkLength {
		return fmt.Errorf("%w: %w: %v (must be between %v and %v)",
			ErrInvalidConfig, audio.ErrInvalidChunkLength, c.ChunkLength, MinChunkLength, MaxChunkLength)
	}
	return nil
}
