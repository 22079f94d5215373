package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
)

// durationLineRe matches ffmpeg's input banner, e.g. "Duration: 01:30:00.52,".
var durationLineRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

// Prober reports the total playback length of a media file.
type Prober struct {
	ffprobePath string
	ffmpegPath  string
	timeout     time.Duration
	cmd         commandRunner
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProbeTimeout bounds each probe invocation. Zero disables the bound.
func WithProbeTimeout(d time.Duration) ProberOption {
	return func(p *Prober) { p.timeout = d }
}

// WithProbeRunner sets the command runner (for testing).
func WithProbeRunner(r commandRunner) ProberOption {
	return func(p *Prober) { p.cmd = r }
}

// NewProber creates a Prober. ffprobePath may be empty, in which case the
// duration is read from ffmpeg's input banner instead.
func NewProber(tools ffmpeg.Tools, opts ...ProberOption) (*Prober, error) {
	if tools.FFprobe == "" && tools.FFmpeg == "" {
		return nil, fmt.Errorf("no probe tool available: %w", ffmpeg.ErrNotFound)
	}
	p := &Prober{
		ffprobePath: tools.FFprobe,
		ffmpegPath:  tools.FFmpeg,
		cmd:         ffmpeg.NewExecutor(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Duration returns the container duration of path.
// It spawns exactly one external process and never retries.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if p.ffprobePath != "" {
		return p.probeWithFFprobe(ctx, path)
	}
	return p.probeWithFFmpeg(ctx, path)
}

func (p *Prober) probeWithFFprobe(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	stdout, stderr, err := p.cmd.Run(ctx, p.ffprobePath, args)
	if err != nil {
		if errors.Is(err, ffmpeg.ErrTimeout) {
			return 0, fmt.Errorf("probe %s: %w", path, err)
		}
		return 0, fmt.Errorf("%w: ffprobe: %v: %s", ErrProbeFailed, err, strings.TrimSpace(string(stderr)))
	}
	return parseSeconds(string(stdout))
}

// probeWithFFmpeg runs "ffmpeg -i <path>" without an output. ffmpeg exits
// non-zero ("At least one output file must be specified") but still prints
// the input banner, so the exit status is ignored when a duration is found.
func (p *Prober) probeWithFFmpeg(ctx context.Context, path string) (time.Duration, error) {
	_, stderr, err := p.cmd.Run(ctx, p.ffmpegPath, []string{"-hide_banner", "-i", path})
	if errors.Is(err, ffmpeg.ErrTimeout) {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	d, parseErr := parseBannerDuration(string(stderr))
	if parseErr != nil {
		if err != nil {
			return 0, fmt.Errorf("%w: ffmpeg: %v: %s", ErrProbeFailed, err, strings.TrimSpace(string(stderr)))
		}
		return 0, parseErr
	}
	return d, nil
}

// parseSeconds parses ffprobe's plain "5400.123000" output.
func parseSeconds(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable duration %q", ErrProbeFailed, s)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("%w: invalid duration %q", ErrProbeFailed, s)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// parseBannerDuration extracts "Duration: HH:MM:SS.ff" from ffmpeg stderr.
func parseBannerDuration(out string) (time.Duration, error) {
	m := durationLineRe.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("%w: no duration in ffmpeg output", ErrProbeFailed)
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])

	// The fractional part has a variable number of digits (".5", ".52", ".523").
	frac, _ := strconv.ParseFloat("0."+m[4], 64)

	d := time.Duration(h)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(frac*float64(time.Second))
	if d <= 0 {
		return 0, fmt.Errorf("%w: zero duration", ErrProbeFailed)
	}
	return d, nil
}
