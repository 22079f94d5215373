package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long: `Inspect the configuration.

Configuration is read from ~/.config/chunkscribe/config.toml (or
$XDG_CONFIG_HOME/chunkscribe/config.toml, or --config), then overridden by
CHUNKSCRIBE_* and OPENAI_API_KEY environment variables. A .env file in the
working directory is loaded first.`,
		Example: `  chunkscribe config path
  chunkscribe config show > ~/.config/chunkscribe/config.toml`,
	}

	cmd.AddCommand(configPathCmd(env))
	cmd.AddCommand(configShowCmd(env))

	return cmd
}

// configPathCmd creates the "config path" subcommand.
func configPathCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigPath(env)
		},
	}
}

// configShowCmd creates the "config show" subcommand.
func configShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Long: `Print the effective configuration as TOML.

Values combine defaults, the config file and environment overrides.
The API key is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(env)
		},
	}
}

// runConfigPath handles the "config path" command.
func runConfigPath(env *Env) error {
	_, path, exists, err := env.ConfigLoader.Load(env.ConfigPath)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(env.Stdout, path)
	if !exists {
		_, _ = fmt.Fprintln(env.Stderr, "(file does not exist, defaults are used)")
	}
	return nil
}

// runConfigShow handles the "config show" command.
func runConfigShow(env *Env) error {
	cfg, err := env.loadConfig()
	if err != nil {
		return err
	}
	return cfg.Encode(env.Stdout)
}
