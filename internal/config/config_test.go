package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// Notes:
// - White-box testing (package config) to inject the environment into load.
// - Uses t.TempDir() for I/O isolation; only TestDir touches process env.
// - Pure functions (ResolveOutputPath, ExpandPath) use t.Parallel().

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// writeConfigFile creates config.toml in dir and returns its path.
func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return p
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// ---------------------------------------------------------------------------
// TestResolveOutputPath - Pure function for output path resolution
// ---------------------------------------------------------------------------

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		output      string
		outputDir   string
		defaultName string
		want        string
	}{
		// Case 1: Absolute path - used as-is
		{
			name:        "absolute path ignores outputDir",
			output:      "/absolute/path/file.txt",
			outputDir:   "/some/dir",
			defaultName: "default.txt",
			want:        "/absolute/path/file.txt",
		},
		{
			name:        "absolute path with empty outputDir",
			output:      "/absolute/path/file.txt",
			outputDir:   "",
			defaultName: "default.txt",
			want:        "/absolute/path/file.txt",
		},

		// Case 2: Relative path with outputDir
		{
			name:        "relative path joined with outputDir",
			output:      "subdir/file.txt",
			outputDir:   "/base/dir",
			defaultName: "default.txt",
			want:        "/base/dir/subdir/file.txt",
		},
		{
			name:        "relative path without outputDir",
			output:      "subdir/file.txt",
			outputDir:   "",
			defaultName: "default.txt",
			want:        "subdir/file.txt",
		},
		{
			name:        "filename only with outputDir",
			output:      "file.txt",
			outputDir:   "/base/dir",
			defaultName: "default.txt",
			want:        "/base/dir/file.txt",
		},

		// Case 3: Empty output - uses defaultName
		{
			name:        "empty output uses defaultName with outputDir",
			output:      "",
			outputDir:   "/base/dir",
			defaultName: "default.txt",
			want:        "/base/dir/default.txt",
		},
		{
			name:        "empty output uses defaultName without outputDir",
			output:      "",
			outputDir:   "",
			defaultName: "default.txt",
			want:        "default.txt",
		},

		// Edge cases: path cleaning
		{
			name:        "cleans redundant separators",
			output:      "subdir//file.txt",
			outputDir:   "/base//dir",
			defaultName: "default.txt",
			want:        "/base/dir/subdir/file.txt",
		},
		{
			name:        "cleans dot segments",
			output:      "./subdir/../file.txt",
			outputDir:   "/base/./dir",
			defaultName: "default.txt",
			want:        "/base/dir/file.txt",
		},
		{
			name:        "handles trailing slash in outputDir",
			output:      "file.txt",
			outputDir:   "/base/dir/",
			defaultName: "default.txt",
			want:        "/base/dir/file.txt",
		},

		// Edge cases: special values
		{
			name:        "dot as output",
			output:      ".",
			outputDir:   "/base/dir",
			defaultName: "default.txt",
			want:        "/base/dir",
		},
		{
			name:        "dot-dot as output",
			output:      "..",
			outputDir:   "/base/dir",
			defaultName: "default.txt",
			want:        "/base",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ResolveOutputPath(tt.output, tt.outputDir, tt.defaultName)
			if got != tt.want {
				t.Errorf("ResolveOutputPath(%q, %q, %q) = %q, want %q",
					tt.output, tt.outputDir, tt.defaultName, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExpandPath - Pure function for ~ expansion
// ---------------------------------------------------------------------------

func TestExpandPath(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("cannot get home dir: %v", err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "expands tilde prefix",
			path: "~/Documents/file.txt",
			want: filepath.Join(home, "Documents/file.txt"),
		},
		{
			name: "no expansion for absolute path",
			path: "/absolute/path",
			want: "/absolute/path",
		},
		{
			name: "no expansion for relative path",
			path: "relative/path",
			want: "relative/path",
		},
		{
			name: "no expansion for tilde in middle",
			path: "/path/~/file",
			want: "/path/~/file",
		},
		{
			name: "tilde alone expands to home",
			path: "~",
			want: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExpandPath(tt.path)
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoad - File, environment and validation
// ---------------------------------------------------------------------------

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := load(p, envMap(nil))
	if err != nil {
		t.Fatalf("load() unexpected error: %v", err)
	}
	if exists {
		t.Error("exists = true for a missing file")
	}
	if resolved != p {
		t.Errorf("resolved = %q, want %q", resolved, p)
	}

	want := Default()
	if cfg.Server.Addr != want.Server.Addr || cfg.Server.MaxUploadMB != 2048 {
		t.Errorf("server = %+v, want defaults", cfg.Server)
	}
	if cfg.Defaults.Model != "base" || cfg.Defaults.Language != "auto" || cfg.Defaults.ChunkMinutes != 30 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if cfg.Timeouts.Transcribe.Duration != 0 || cfg.Timeouts.TranscribeRatio != 3 {
		t.Errorf("transcribe timeout = %v, ratio = %v, want 0 and 3", cfg.Timeouts.Transcribe, cfg.Timeouts.TranscribeRatio)
	}
	if cfg.Engine.Backend != "whisper" {
		t.Errorf("backend = %q, want whisper", cfg.Engine.Backend)
	}
}

func TestDefault_SizesSelectDistinctModels(t *testing.T) {
	t.Parallel()

	cfg := Default()
	lc := cfg.LoaderConfig()
	if lc.Collapsed() {
		t.Fatal("default loader config maps every size to one model")
	}
	seen := make(map[string]transcribe.Size)
	for _, size := range transcribe.Sizes() {
		model := lc.ModelFor(size)
		if prev, dup := seen[model]; dup {
			t.Errorf("sizes %s and %s both load %q", prev, size, model)
		}
		seen[model] = size
	}
}

func TestDefault_TranscribeBudgetCoversLongChunks(t *testing.T) {
	t.Parallel()

	cfg := Default()
	st := cfg.StepTimeouts()
	if st.Transcribe != 0 {
		t.Fatalf("fixed transcribe budget = %v, want ratio-based", st.Transcribe)
	}
	// A 60-minute chunk gets three hours.
	if got := time.Duration(st.TranscribeRatio * float64(60*time.Minute)); got != 3*time.Hour {
		t.Errorf("budget for 60m chunk = %v, want 3h", got)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		key     string
	}{
		{"misspelled section", "[defualts]\nmodel = \"small\"", "defualts"},
		{"misspelled key", "[defaults]\nchunk_minutse = 10", "chunk_minutse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := writeConfigFile(t, t.TempDir(), tt.content)
			_, _, _, err := load(p, envMap(nil))
			if err == nil {
				t.Fatal("load() accepted an unknown key")
			}
			var strict *toml.StrictMissingError
			if !errors.As(err, &strict) {
				t.Fatalf("load() error = %v, want *toml.StrictMissingError", err)
			}
			if !strings.Contains(strict.String(), tt.key) {
				t.Errorf("error does not name %q:\n%s", tt.key, strict.String())
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	p := writeConfigFile(t, t.TempDir(), `
[server]
addr = "0.0.0.0:9000"
max_upload_mb = 512
run_retention = "15m"

[engine]
backend = "OpenAI"
base_url = "http://localhost:8000/v1/"

[engine.models]
Small = "Systran/faster-whisper-small"

[timeouts]
probe = "30s"
extract = "5m"
transcribe = "1h"

[defaults]
model = "Medium"
language = "es"
chunk_minutes = 10

[logging]
level = "DEBUG"
format = "json"
`)

	cfg, _, exists, err := load(p, envMap(nil))
	if err != nil {
		t.Fatalf("load() unexpected error: %v", err)
	}
	if !exists {
		t.Error("exists = false for an existing file")
	}
	if cfg.Server.Addr != "0.0.0.0:9000" || cfg.Server.MaxUploadMB != 512 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.RunRetention.Duration != 15*time.Minute {
		t.Errorf("run_retention = %v", cfg.Server.RunRetention)
	}
	if cfg.Engine.Backend != "openai" || cfg.Engine.BaseURL != "http://localhost:8000/v1" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.Models["small"] != "Systran/faster-whisper-small" {
		t.Errorf("models = %v", cfg.Engine.Models)
	}
	if cfg.Timeouts.Probe.Duration != 30*time.Second || cfg.Timeouts.Transcribe.Duration != time.Hour {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}

	run := cfg.RunDefaults()
	if run.Size != transcribe.SizeMedium || run.Language != "es" || run.ChunkLength != 10*time.Minute {
		t.Errorf("RunDefaults() = %+v", run)
	}
	lc := cfg.LoaderConfig()
	if lc.OpenAI.ModelFor(transcribe.SizeSmall) != "Systran/faster-whisper-small" {
		t.Errorf("LoaderConfig model for small = %q", lc.OpenAI.ModelFor(transcribe.SizeSmall))
	}
	if lc.OpenAI.ModelFor(transcribe.SizeTiny) != transcribe.DefaultOpenAIModel {
		t.Errorf("LoaderConfig model for tiny = %q", lc.OpenAI.ModelFor(transcribe.SizeTiny))
	}
	if cfg.MaxUploadBytes() != 512<<20 {
		t.Errorf("MaxUploadBytes() = %d", cfg.MaxUploadBytes())
	}
	if cfg.StepTimeouts().Extract != 5*time.Minute {
		t.Errorf("StepTimeouts() = %+v", cfg.StepTimeouts())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	p := writeConfigFile(t, t.TempDir(), `
[engine]
api_key = "from-file"

[defaults]
model = "tiny"
chunk_minutes = 20
`)
	env := envMap(map[string]string{
		EnvAPIKey:       "sk-env",
		EnvModel:        "large",
		EnvChunkMinutes: "45",
		EnvLanguage:     "fr",
		EnvBackend:      "whisper",
		EnvAddr:         ":8080",
	})

	cfg, _, _, err := load(p, env)
	if err != nil {
		t.Fatalf("load() unexpected error: %v", err)
	}
	if cfg.Engine.APIKey != "sk-env" || cfg.Engine.Backend != "whisper" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Defaults.Model != "large" || cfg.Defaults.ChunkMinutes != 45 || cfg.Defaults.Language != "fr" {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "malformed toml",
			content: "[server\naddr = ",
		},
		{
			name:    "bad duration",
			content: "[timeouts]\nprobe = \"soon\"",
		},
		{
			name:    "unknown backend",
			content: "[engine]\nbackend = \"vosk\"",
			wantErr: transcribe.ErrUnknownBackend,
		},
		{
			name:    "unknown model size",
			content: "[defaults]\nmodel = \"huge\"",
			wantErr: transcribe.ErrUnsupportedSize,
		},
		{
			name:    "unknown model map key",
			content: "[engine.models]\nhuge = \"x\"",
			wantErr: ErrInvalid,
		},
		{
			name:    "invalid language",
			content: "[defaults]\nlanguage = \"xx\"",
			wantErr: lang.ErrInvalid,
		},
		{
			name:    "chunk too short",
			content: "[defaults]\nchunk_minutes = 2",
			wantErr: ErrInvalid,
		},
		{
			name:    "chunk too long",
			content: "[defaults]\nchunk_minutes = 61",
			wantErr: ErrInvalid,
		},
		{
			name:    "non-positive upload limit",
			content: "[server]\nmax_upload_mb = 0",
			wantErr: ErrInvalid,
		},
		{
			name:    "negative timeout",
			content: "[timeouts]\nextract = \"-1s\"",
			wantErr: ErrInvalid,
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"xml\"",
			wantErr: ErrInvalid,
		},
		{
			name:    "non-numeric chunk env",
			env:     map[string]string{EnvChunkMinutes: "thirty"},
			wantErr: ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := writeConfigFile(t, t.TempDir(), tt.content)
			_, _, _, err := load(p, envMap(tt.env))
			if err == nil {
				t.Fatal("load() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestEncode - config show output
// ---------------------------------------------------------------------------

func TestEncode_MasksAPIKey(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Engine.APIKey = "sk-secret"

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "sk-secret") {
		t.Errorf("Encode() leaked the API key: %q", out)
	}
	for _, want := range []string{"[server]", "max_upload_mb = 2048", "chunk_minutes = 30"} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode() output missing %q:\n%s", want, out)
		}
	}
	if cfg.Engine.APIKey != "sk-secret" {
		t.Error("Encode() mutated the receiver")
	}

	// The encoded form loads back to the same values.
	p := writeConfigFile(t, t.TempDir(), out)
	back, _, _, err := load(p, envMap(nil))
	if err != nil {
		t.Fatalf("load(encoded) unexpected error: %v", err)
	}
	if back.Server.RunRetention != cfg.Server.RunRetention || back.Defaults != cfg.Defaults {
		t.Errorf("round trip changed values: %+v", back)
	}
}

// ---------------------------------------------------------------------------
// TestDir - Config directory resolution
// ---------------------------------------------------------------------------

func TestDir(t *testing.T) {
	// NO t.Parallel() - uses t.Setenv

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		got, err := DefaultPath()
		if err != nil {
			t.Fatalf("DefaultPath() error = %v", err)
		}
		want := filepath.Join("/custom/config", "chunkscribe", "config.toml")
		if got != want {
			t.Errorf("DefaultPath() = %q, want %q", got, want)
		}
	})

	t.Run("uses home/.config when XDG not set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("cannot get home dir: %v", err)
		}

		got, err := dir()
		if err != nil {
			t.Fatalf("dir() error = %v", err)
		}
		want := filepath.Join(home, ".config", "chunkscribe")
		if got != want {
			t.Errorf("dir() = %q, want %q", got, want)
		}
	})
}
