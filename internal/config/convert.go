package config

import (
	"time"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// RunDefaults returns the run configuration pre-filled from Defaults.
// Validate has already checked every field.
func (c *Config) RunDefaults() pipeline.Config {
	size, _ := transcribe.ParseSize(c.Defaults.Model)
	return pipeline.Config{
		Size:        size,
		Language:    c.Defaults.Language,
		ChunkLength: time.Duration(c.Defaults.ChunkMinutes) * time.Minute,
	}
}

// StepTimeouts returns the per-step time budgets.
func (c *Config) StepTimeouts() pipeline.Timeouts {
	return pipeline.Timeouts{
		Probe:           c.Timeouts.Probe.Duration,
		Extract:         c.Timeouts.Extract.Duration,
		Transcribe:      c.Timeouts.Transcribe.Duration,
		TranscribeRatio: c.Timeouts.TranscribeRatio,
	}
}

// LoaderConfig returns the engine loader settings.
func (c *Config) LoaderConfig() transcribe.LoaderConfig {
	models := make(map[transcribe.Size]string, len(c.Engine.Models))
	for size, name := range c.Engine.Models {
		models[transcribe.Size(size)] = name
	}
	return transcribe.LoaderConfig{
		Backend: transcribe.Backend(c.Engine.Backend),
		OpenAI: transcribe.OpenAIConfig{
			BaseURL: c.Engine.BaseURL,
			APIKey:  c.Engine.APIKey,
			Models:  models,
			Retry:   apierr.DefaultRetryConfig,
		},
		WhisperBinary: c.Engine.WhisperBinary,
		Device:        c.Engine.Device,
		TempDir:       c.Server.TempDir,
	}
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
