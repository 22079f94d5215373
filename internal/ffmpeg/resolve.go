package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
)

// Environment variables that pin the tool locations.
const (
	EnvFFmpegPath  = "FFMPEG_PATH"
	EnvFFprobePath = "FFPROBE_PATH"
)

const (
	ffmpegName  = "ffmpeg"
	ffprobeName = "ffprobe"
	exeSuffix   = ".exe"
)

// Tools holds resolved binary paths.
// FFprobe is empty when no ffprobe binary was found; duration probing then
// falls back to parsing ffmpeg's stderr.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Resolver locates ffmpeg and ffprobe.
type Resolver struct {
	stat    fileStatter
	env     envProvider
	goos    string
	ffmpeg  string // configured path, highest precedence
	ffprobe string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConfiguredPaths pins explicit tool paths, typically from the config file.
func WithConfiguredPaths(ffmpegPath, ffprobePath string) ResolverOption {
	return func(r *Resolver) {
		r.ffmpeg = ffmpegPath
		r.ffprobe = ffprobePath
	}
}

// WithFileStatter sets the file statter (for testing).
func WithFileStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithEnvProvider sets the environment provider (for testing).
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithPlatform overrides the target OS (for testing).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osFileStatter{},
		env:  osEnvProvider{},
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the tools using the following precedence for each binary:
//  1. configured path (error if set but missing)
//  2. FFMPEG_PATH / FFPROBE_PATH (error if set but missing)
//  3. ~/.chunkscribe/bin/<name>
//  4. system PATH
//
// A missing ffmpeg is fatal; a missing ffprobe is not.
func (r *Resolver) Resolve(ctx context.Context) (Tools, error) {
	if err := ctx.Err(); err != nil {
		return Tools{}, err
	}

	ffmpegPath, err := r.find(ffmpegName, r.ffmpeg, EnvFFmpegPath)
	if err != nil {
		return Tools{}, err
	}
	if ffmpegPath == "" {
		return Tools{}, fmt.Errorf("%w in PATH\n\n%s", ErrNotFound, r.installInstructions())
	}

	ffprobePath, err := r.find(ffprobeName, r.ffprobe, EnvFFprobePath)
	if err != nil {
		return Tools{}, err
	}

	return Tools{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

// find returns "" with a nil error when the binary is simply absent.
func (r *Resolver) find(name, configured, envKey string) (string, error) {
	for _, pinned := range []struct{ path, source string }{
		{configured, "configured"},
		{r.env.Getenv(envKey), envKey},
	} {
		if pinned.path == "" {
			continue
		}
		if _, err := r.stat.Stat(pinned.path); err != nil {
			return "", fmt.Errorf("%w: %s path %q does not exist", ErrNotFound, pinned.source, pinned.path)
		}
		return pinned.path, nil
	}

	if dir, err := r.installDir(); err == nil {
		candidate := filepath.Join(dir, r.binaryName(name))
		if _, err := r.stat.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if p, err := r.env.LookPath(name); err == nil {
		return p, nil
	}
	return "", nil
}

func (r *Resolver) installDir() (string, error) {
	home, err := r.env.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".chunkscribe", "bin"), nil
}

func (r *Resolver) binaryName(name string) string {
	if r.goos == "windows" {
		return name + exeSuffix
	}
	return name
}

func (r *Resolver) installInstructions() string {
	switch r.goos {
	case "darwin":
		return `To install FFmpeg:
  brew install ffmpeg

Or set FFMPEG_PATH (and FFPROBE_PATH) to your binaries.`
	case "linux":
		return `To install FFmpeg:
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or set FFMPEG_PATH (and FFPROBE_PATH) to your binaries.`
	case "windows":
		return `To install FFmpeg:
  winget install ffmpeg

Or set FFMPEG_PATH (and FFPROBE_PATH) to your ffmpeg.exe.`
	default:
		return `Download FFmpeg from https://ffmpeg.org/download.html
Or set FFMPEG_PATH (and FFPROBE_PATH) to your binaries.`
	}
}
