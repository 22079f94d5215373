package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid indicates a configuration value outside its allowed range.
var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration written as "90s" or "30m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Server configures the web UI.
type Server struct {
	Addr         string   `toml:"addr"`
	MaxUploadMB  int64    `toml:"max_upload_mb"`
	RunRetention Duration `toml:"run_retention"`

	// TempDir is the parent of upload and run directories. Empty means the OS default.
	TempDir string `toml:"temp_dir"`
}

// Engine configures the transcription backend.
type Engine struct {
	Backend string `toml:"backend"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`

	// Models maps a size ("tiny" .. "large") to a server-side model name.
	Models map[string]string `toml:"models"`

	WhisperBinary string `toml:"whisper_binary"`
	Device        string `toml:"device"`
}

// Tools overrides ffmpeg/ffprobe discovery.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Timeouts bounds each external step.
type Timeouts struct {
	Probe   Duration `toml:"probe"`
	Extract Duration `toml:"extract"`

	// Transcribe is a fixed budget per chunk. Zero scales the budget with
	// the chunk length: TranscribeRatio times the requested duration.
	Transcribe      Duration `toml:"transcribe"`
	TranscribeRatio float64  `toml:"transcribe_ratio"`
}

// Defaults pre-fills run settings.
type Defaults struct {
	Model        string `toml:"model"`
	Language     string `toml:"language"`
	ChunkMinutes int    `toml:"chunk_minutes"`
}

// Output configures where the CLI writes transcripts.
type Output struct {
	Dir string `toml:"dir"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config holds user configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Engine   Engine   `toml:"engine"`
	Tools    Tools    `toml:"tools"`
	Timeouts Timeouts `toml:"timeouts"`
	Defaults Defaults `toml:"defaults"`
	Output   Output   `toml:"output"`
	Logging  Logging  `toml:"logging"`
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/chunkscribe.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chunkscribe"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "chunkscribe"), nil
}

// DefaultPath returns the config file location used when no path is given.
func DefaultPath() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.toml"), nil
}

// Load reads the configuration at path (DefaultPath when empty), applies
// environment overrides and validates the result. It returns the resolved
// path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	exists := true
	data, err := os.ReadFile(resolved) // #nosec G304 -- user-chosen config path
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("read config: %w", err)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, "", false, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return ExpandPath(path), nil
	}
	return DefaultPath()
}

// Encode writes cfg as TOML. The API key is masked.
func (c Config) Encode(w io.Writer) error {
	masked := c
	if masked.Engine.APIKey != "" {
		masked.Engine.APIKey = "********"
	}
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(masked); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
