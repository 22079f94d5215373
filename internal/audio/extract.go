package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
)

// artifactExts maps a source container to the container used for chunk
// artifacts. Video containers are reduced to an audio container that can
// hold the original audio stream without re-encoding.
var artifactExts = map[string]string{
	".mp3":  ".mp3",
	".wav":  ".wav",
	".m4a":  ".m4a",
	".ogg":  ".ogg",
	".flac": ".flac",
	".webm": ".webm",
	".mp4":  ".m4a",
	".mov":  ".m4a",
	".avi":  ".mka",
	".mkv":  ".mka",
}

// ArtifactExt returns the file extension to use for chunks cut from src.
func ArtifactExt(src string) string {
	if ext, ok := artifactExts[strings.ToLower(filepath.Ext(src))]; ok {
		return ext
	}
	return ".mka"
}

// ArtifactName returns the file name for the chunk at index.
func ArtifactName(index int, src string) string {
	return fmt.Sprintf("chunk_%03d%s", index, ArtifactExt(src))
}

// Extractor carves time slices out of a media file by stream copy.
// Cut points snap to encoded frame boundaries, so actual chunk edges may
// drift slightly from the requested ones.
type Extractor struct {
	ffmpegPath string
	timeout    time.Duration
	cmd        commandRunner
	stat       fileStatter
	files      fileRemover
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractTimeout bounds each extraction. Zero disables the bound.
func WithExtractTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) { e.timeout = d }
}

// WithExtractRunner sets the command runner (for testing).
func WithExtractRunner(r commandRunner) ExtractorOption {
	return func(e *Extractor) { e.cmd = r }
}

// WithExtractStatter sets the file statter (for testing).
func WithExtractStatter(s fileStatter) ExtractorOption {
	return func(e *Extractor) { e.stat = s }
}

// WithExtractRemover sets the file remover (for testing).
func WithExtractRemover(f fileRemover) ExtractorOption {
	return func(e *Extractor) { e.files = f }
}

// NewExtractor creates an Extractor using the ffmpeg binary at ffmpegPath.
func NewExtractor(ffmpegPath string, opts ...ExtractorOption) (*Extractor, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	e := &Extractor{
		ffmpegPath: ffmpegPath,
		cmd:        ffmpeg.NewExecutor(),
		stat:       osFileStatter{},
		files:      osFileRemover{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract writes chunk c of src to dst. It checks both the exit status and
// the artifact itself: a missing or empty file is an error, and a partial
// file left behind by a failed run is removed.
func (e *Extractor) Extract(ctx context.Context, src, dst string, c Chunk) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	_, stderr, err := e.cmd.Run(ctx, e.ffmpegPath, extractArgs(src, dst, c))
	if err != nil {
		_ = e.files.Remove(dst) // best-effort; the extraction error takes precedence
		if errors.Is(err, ffmpeg.ErrTimeout) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("extract %s: %w", c, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("extract %s: %w", c, ctxErr)
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrExtractFailed, c, err, strings.TrimSpace(string(stderr)))
	}

	info, err := e.stat.Stat(dst)
	if err != nil {
		return fmt.Errorf("%w: %s: artifact missing: %v", ErrExtractFailed, c, err)
	}
	if info.Size() == 0 {
		_ = e.files.Remove(dst)
		return fmt.Errorf("%w: %s: artifact is empty", ErrExtractFailed, c)
	}
	return nil
}

// extractArgs builds a stream-copy invocation. -ss before -i seeks on the
// input, which is fast for multi-hour sources.
func extractArgs(src, dst string, c Chunk) []string {
	return []string{
		"-v", "error",
		"-y",
		"-ss", formatFFmpegTime(c.Start),
		"-t", formatFFmpegTime(c.Length),
		"-i", src,
		"-vn",
		"-c:a", "copy",
		dst,
	}
}

// formatFFmpegTime formats a duration for ffmpeg -ss/-t arguments.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
