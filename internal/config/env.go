package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables that override the config file.
const (
	EnvAddr         = "CHUNKSCRIBE_ADDR"
	EnvBackend      = "CHUNKSCRIBE_BACKEND"
	EnvBaseURL      = "CHUNKSCRIBE_BASE_URL"
	EnvAPIKey       = "OPENAI_API_KEY"
	EnvModel        = "CHUNKSCRIBE_MODEL"
	EnvLanguage     = "CHUNKSCRIBE_LANGUAGE"
	EnvChunkMinutes = "CHUNKSCRIBE_CHUNK_MINUTES"
	EnvOutputDir    = "CHUNKSCRIBE_OUTPUT_DIR"
	EnvLogLevel     = "CHUNKSCRIBE_LOG_LEVEL"
	EnvLogFormat    = "CHUNKSCRIBE_LOG_FORMAT"
)

// applyEnv overrides file values with non-empty environment variables.
// FFMPEG_PATH and FFPROBE_PATH are read by the tool resolver instead.
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvAddr, &c.Server.Addr},
		{EnvBackend, &c.Engine.Backend},
		{EnvBaseURL, &c.Engine.BaseURL},
		{EnvAPIKey, &c.Engine.APIKey},
		{EnvModel, &c.Defaults.Model},
		{EnvLanguage, &c.Defaults.Language},
		{EnvOutputDir, &c.Output.Dir},
		{EnvLogLevel, &c.Logging.Level},
		{EnvLogFormat, &c.Logging.Format},
	}
	for _, s := range strs {
		if v := strings.TrimSpace(getenv(s.key)); v != "" {
			*s.dst = v
		}
	}

	if v := strings.TrimSpace(getenv(EnvChunkMinutes)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, EnvChunkMinutes, v)
		}
		c.Defaults.ChunkMinutes = n
	}
	return nil
}
