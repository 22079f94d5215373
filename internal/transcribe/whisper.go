package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
)

// DefaultWhisperBinary is the executable name of the openai-whisper CLI.
const DefaultWhisperBinary = "whisper"

// commandRunner executes an external tool. *ffmpeg.Executor satisfies it.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)
}

// Compile-time interface compliance checks.
var (
	_ Engine        = (*WhisperEngine)(nil)
	_ commandRunner = (*ffmpeg.Executor)(nil)
)

// WhisperEngine runs the local whisper CLI once per artifact. The model is
// loaded by the CLI process itself, so the engine only pins the binary,
// model size and device.
//
// Each chunk therefore pays for reading the weights again: a few seconds
// for tiny/base, up to a minute for large on CPU. With chunks of 5 to 60
// minutes this stays small next to decoding. The OpenAI backend pointed at
// a self-hosted server keeps the model resident instead.
type WhisperEngine struct {
	binary  string
	size    Size
	device  string
	tmpRoot string
	cmd     commandRunner

	lookPath func(file string) (string, error)
}

// WhisperOption configures a WhisperEngine.
type WhisperOption func(*WhisperEngine)

// WithWhisperDevice selects the torch device ("cpu", "cuda").
// Empty lets whisper decide.
func WithWhisperDevice(device string) WhisperOption {
	return func(w *WhisperEngine) { w.device = device }
}

// WithWhisperRunner sets the command runner (for testing).
func WithWhisperRunner(r commandRunner) WhisperOption {
	return func(w *WhisperEngine) { w.cmd = r }
}

// WithWhisperTempRoot sets where per-call output directories are created.
// Empty means os.TempDir.
func WithWhisperTempRoot(dir string) WhisperOption {
	return func(w *WhisperEngine) { w.tmpRoot = dir }
}

// WithWhisperLookPath replaces exec.LookPath (for testing).
func WithWhisperLookPath(fn func(file string) (string, error)) WhisperOption {
	return func(w *WhisperEngine) { w.lookPath = fn }
}

// LoadWhisper resolves binary (a name on PATH or a path) and returns an
// engine for size.
func LoadWhisper(binary string, size Size, opts ...WhisperOption) (*WhisperEngine, error) {
	if binary == "" {
		binary = DefaultWhisperBinary
	}
	w := &WhisperEngine{
		binary:   binary,
		size:     size,
		cmd:      ffmpeg.NewExecutor(),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(w)
	}

	resolved, err := w.lookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: whisper CLI %q not found (pip install -U openai-whisper): %v",
			ErrModelLoad, binary, err)
	}
	w.binary = resolved
	return w, nil
}

// Transcribe runs whisper on path and reads the JSON it writes.
func (w *WhisperEngine) Transcribe(ctx context.Context, path string, opts Options) (Result, error) {
	outDir, err := os.MkdirTemp(w.tmpRoot, "chunkscribe-whisper-*")
	if err != nil {
		return Result{}, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	_, stderr, err := w.cmd.Run(ctx, w.binary, w.args(path, outDir, opts))
	if err != nil {
		if errors.Is(err, ffmpeg.ErrTimeout) {
			return Result{}, fmt.Errorf("transcribe %s: %w", filepath.Base(path), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("%w: whisper: %v: %s", ErrTranscribeFailed, err, lastLine(stderr))
	}

	data, err := os.ReadFile(filepath.Join(outDir, outputName(path))) // #nosec G304 -- path built from our temp dir
	if err != nil {
		return Result{}, fmt.Errorf("%w: whisper produced no output: %v", ErrTranscribeFailed, err)
	}
	res, err := parseWhisperOutput(data)
	if err != nil {
		return Result{}, err
	}
	if res.Language == "" {
		res.Language = opts.Language
	}
	return res, nil
}

// Close implements Engine. Each call runs its own process.
func (w *WhisperEngine) Close() error {
	return nil
}

func (w *WhisperEngine) args(path, outDir string, opts Options) []string {
	args := []string{
		path,
		"--model", w.size.String(),
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}
	if w.device != "" {
		args = append(args, "--device", w.device)
	}
	return args
}

// outputName is the file whisper writes for path: its base name with a .json
// extension.
func outputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		End float64 `json:"end"`
	} `json:"segments"`
}

func parseWhisperOutput(data []byte) (Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("%w: parse whisper output: %v", ErrTranscribeFailed, err)
	}
	var d time.Duration
	if n := len(out.Segments); n > 0 {
		d = time.Duration(out.Segments[n-1].End * float64(time.Second))
	}
	return Result{
		Text:     out.Text,
		Language: strings.ToLower(out.Language),
		Duration: d,
	}, nil
}

// lastLine returns the last non-empty line of tool output, where Python
// tracebacks put the actual error.
func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
