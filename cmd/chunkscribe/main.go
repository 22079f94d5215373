package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/apierr"
	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/cli"
	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/ffmpeg"
	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
	ExitInterrupt     = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create the CLI environment with production defaults.
	env := cli.DefaultEnv()

	rootCmd := newRootCmd(env)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(exitCode(err))
	}
}

// newRootCmd assembles the command tree around env.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "chunkscribe",
		Short:   "Transcribe long audio and video files chunk by chunk",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&env.ConfigPath, "config", "",
		"Config file (default: ~/.config/chunkscribe/config.toml)")

	// Subcommands.
	rootCmd.AddCommand(cli.ServeCmd(env))
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Interrupt (ExitInterrupt = 130).
	if errors.Is(err, context.Canceled) || errors.Is(err, pipeline.ErrCanceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3). Checked before transcription errors:
	// a failed model load may wrap an API error.
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, transcribe.ErrModelLoad) ||
		errors.Is(err, transcribe.ErrAPIKeyMissing) || errors.Is(err, transcribe.ErrUnknownBackend) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, audio.ErrFileNotFound) || errors.Is(err, audio.ErrUnsupportedFormat) ||
		errors.Is(err, audio.ErrInvalidChunkLength) || errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, transcribe.ErrUnsupportedSize) || errors.Is(err, pipeline.ErrInvalidConfig) ||
		errors.Is(err, config.ErrInvalid) || errors.Is(err, cli.ErrOutputExists) {
		return ExitValidation
	}

	// Transcription errors (ExitTranscription = 5).
	if errors.Is(err, pipeline.ErrTimeout) || errors.Is(err, ffmpeg.ErrTimeout) ||
		errors.Is(err, audio.ErrProbeFailed) || errors.Is(err, audio.ErrExtractFailed) ||
		errors.Is(err, transcribe.ErrTranscribeFailed) ||
		errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) || errors.Is(err, apierr.ErrServer) {
		return ExitTranscription
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",          // Missing required flag
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"unknown command",        // Subcommand doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument",       // Invalid flag value type
	"accepts ",               // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",      // Too few arguments
	"requires at most",       // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
