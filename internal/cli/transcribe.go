package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/format"
	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
	"github.com/alnah/go-chunkscribe/internal/web"
)

// TranscribeOptions holds the flags of the transcribe command. Zero values
// fall back to the configuration defaults.
type TranscribeOptions struct {
	InputPath    string
	Output       string
	Model        string
	Language     string
	ChunkMinutes int
	Backend      string
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var opts TranscribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Transcribe a long audio or video file",
		Long: `Transcribe a long audio or video file.

The file is cut into fixed-length chunks with ffmpeg (stream copy, no
re-encoding). Chunks are transcribed one after another and joined with one
paragraph per chunk.

The transcript is written to transcripcion_<name>.txt unless -o is given.
Existing files are never overwritten.

Supported formats: ` + strings.Join(audio.Extensions, ", "),
		Example: `  chunkscribe transcribe lecture.mp3
  chunkscribe transcribe meeting.mp4 -m small -l es -c 20
  chunkscribe transcribe interview.m4a -o notes.txt --backend whisper`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.InputPath = args[0]
			return runTranscribe(cmd, env, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file path (default: transcripcion_<input>.txt)")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Model size: "+sizeList()+" (default from config)")
	cmd.Flags().StringVarP(&opts.Language, "language", "l", "", "Audio language: auto or ISO 639-1 code (default from config)")
	cmd.Flags().IntVarP(&opts.ChunkMinutes, "chunk-minutes", "c", 0,
		fmt.Sprintf("Chunk length in minutes, %d-%d (default from config)",
			int(pipeline.MinChunkLength.Minutes()), int(pipeline.MaxChunkLength.Minutes())))
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "Engine backend: openai, whisper (default from config)")

	return cmd
}

func sizeList() string {
	sizes := transcribe.Sizes()
	names := make([]string, len(sizes))
	for i, s := range sizes {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

// runConfig merges the flags over the configured defaults and validates
// the result.
func runConfig(cfg *config.Config, opts TranscribeOptions) (pipeline.Config, error) {
	rc := cfg.RunDefaults()
	if opts.Model != "" {
		size, err := transcribe.ParseSize(opts.Model)
		if err != nil {
			return rc, err
		}
		rc.Size = size
	}
	if opts.Language != "" {
		rc.Language = lang.Normalize(opts.Language)
	}
	if opts.ChunkMinutes != 0 {
		rc.ChunkLength = time.Duration(opts.ChunkMinutes) * time.Minute
	}
	if err := rc.Validate(); err != nil {
		return rc, err
	}
	return rc, nil
}

// runTranscribe executes one transcription.
// Validation order: file exists -> format -> config -> backend -> run settings -> output
func runTranscribe(cmd *cobra.Command, env *Env, opts TranscribeOptions) error {
	ctx := cmd.Context()

	// === VALIDATION (fail-fast) ===

	if _, err := os.Stat(opts.InputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", audio.ErrFileNotFound, opts.InputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if err := audio.CheckFormat(opts.InputPath); err != nil {
		return err
	}

	cfg, err := env.loadConfig()
	if err != nil {
		return err
	}
	if opts.Backend != "" {
		backend, err := transcribe.ParseBackend(opts.Backend)
		if err != nil {
			return err
		}
		cfg.Engine.Backend = string(backend)
	}

	rc, err := runConfig(cfg, opts)
	if err != nil {
		return err
	}

	output := config.ResolveOutputPath(opts.Output, cfg.Output.Dir, web.TranscriptName(opts.InputPath))
	if err := checkOutputFree(output); err != nil {
		return err
	}

	// === SETUP ===

	logger, err := env.newLogger(cfg)
	if err != nil {
		return err
	}
	runner, closeModels, err := env.RunnerFactory.NewRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeModels(); err != nil {
			logger.Warn("model release failed", "error", err)
		}
	}()

	// === TRANSCRIPTION ===

	language := lang.Hint(rc.Language)
	if language == "" {
		language = lang.Auto
	}
	_, _ = fmt.Fprintf(env.Stderr, "Transcribing %s (model %s, language %s, %s chunks)...\n",
		opts.InputPath, rc.Size, language, format.DurationHuman(rc.ChunkLength))

	progress := newProgressReporter(env.Stderr, env.IsTerminal != nil && env.IsTerminal(env.Stderr))
	res := runner.Run(ctx, opts.InputPath, rc, progress.Func())
	progress.Finish()
	if !res.OK() {
		return res.Err
	}

	if len(res.Languages) > 1 {
		_, _ = fmt.Fprintf(env.Stderr, "Note: chunks were detected as different languages: %s\n",
			strings.Join(res.Languages, ", "))
	}

	// === WRITE OUTPUT ===

	if err := writeFileAtomic(output, res.Text); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Done: %s (%d chunks, %s audio, took %s)\n",
		output, res.Chunks, format.Duration(res.Duration), format.DurationHuman(res.Elapsed))
	return nil
}
