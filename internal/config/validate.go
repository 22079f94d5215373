package config

import (
	"fmt"

	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/logging"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must be set", ErrInvalid)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: server.max_upload_mb must be positive", ErrInvalid)
	}
	if c.Server.RunRetention.Duration <= 0 {
		return fmt.Errorf("%w: server.run_retention must be positive", ErrInvalid)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if _, err := transcribe.ParseBackend(c.Engine.Backend); err != nil {
		return fmt.Errorf("%w: engine.backend: %w", ErrInvalid, err)
	}
	for size := range c.Engine.Models {
		if _, err := transcribe.ParseSize(size); err != nil || size == "" {
			return fmt.Errorf("%w: engine.models: unknown size %q", ErrInvalid, size)
		}
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	for name, d := range map[string]Duration{
		"probe":      c.Timeouts.Probe,
		"extract":    c.Timeouts.Extract,
		"transcribe": c.Timeouts.Transcribe,
	} {
		if d.Duration < 0 {
			return fmt.Errorf("%w: timeouts.%s must not be negative", ErrInvalid, name)
		}
	}
	if c.Timeouts.TranscribeRatio < 0 {
		return fmt.Errorf("%w: timeouts.transcribe_ratio must not be negative", ErrInvalid)
	}
	return nil
}

func (c *Config) validateDefaults() error {
	if _, err := transcribe.ParseSize(c.Defaults.Model); err != nil {
		return fmt.Errorf("%w: defaults.model: %w", ErrInvalid, err)
	}
	if err := lang.Validate(c.Defaults.Language); err != nil {
		return fmt.Errorf("%w: defaults.language: %w", ErrInvalid, err)
	}
	minMinutes := int(pipeline.MinChunkLength.Minutes())
	maxMinutes := int(pipeline.MaxChunkLength.Minutes())
	if c.Defaults.ChunkMinutes < minMinutes || c.Defaults.ChunkMinutes > maxMinutes {
		return fmt.Errorf("%w: defaults.chunk_minutes must be between %d and %d",
			ErrInvalid, minMinutes, maxMinutes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalid, err)
	}
	switch c.Logging.Format {
	case "", "console", "text", "json":
		return nil
	default:
		return fmt.Errorf("%w: logging.format must be console or json", ErrInvalid)
	}
}
