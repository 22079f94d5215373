package config

import "time"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:         "127.0.0.1:7860",
			MaxUploadMB:  2048,
			RunRetention: Duration{time.Hour},
		},
		Engine: Engine{
			Backend:       "whisper",
			WhisperBinary: "whisper",
		},
		Timeouts: Timeouts{
			Probe:   Duration{time.Minute},
			Extract: Duration{10 * time.Minute},
			// Large models on CPU run slower than real time.
			TranscribeRatio: 3,
		},
		Defaults: Defaults{
			Model:        "base",
			Language:     "auto",
			ChunkMinutes: 30,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
