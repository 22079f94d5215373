package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ServeCmd creates the serve command.
// The env parameter provides injectable dependencies for testing.
func ServeCmd(env *Env) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Long: `Run the browser interface.

Upload a file, pick the model size, language and chunk length, follow the
progress and download the transcript. Each upload runs in isolation and is
deleted when its transcription ends.

Ctrl+C stops the server and cancels running transcriptions.`,
		Example: `  chunkscribe serve
  chunkscribe serve --addr 0.0.0.0:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, env, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:7860)")

	return cmd
}

func runServe(cmd *cobra.Command, env *Env, addr string) error {
	ctx := cmd.Context()

	cfg, err := env.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

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

	srv := env.ServerFactory.NewServer(runner, cfg, logger)
	_, _ = fmt.Fprintf(env.Stderr, "Serving on http://%s (Ctrl+C to stop)\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(env.Stderr, "Stopped.")
	return nil
}
