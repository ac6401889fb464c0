package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/synapse/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "Synapse simulates signal propagation over a layered random graph",
	Long: `Synapse generates a layered, weighted directed graph and propagates text stimuli
through it in synchronous steps, exposing the result over HTTP, MCP or the terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Uint64("seed", 0, "Seed for reproducible graph generation")
}

// loadRuntime resolves configuration from flags, file and environment and builds the engine.
func loadRuntime(ctx context.Context, cmd *cobra.Command) (*cli.Runtime, error) {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	overrides := cli.Overrides{LogLevel: level}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		overrides.Seed = &seed
	}
	if f := cmd.Flags().Lookup("steps"); f != nil && f.Changed {
		steps, _ := cmd.Flags().GetInt("steps")
		overrides.Steps = &steps
	}

	cfg, err := cli.LoadConfig(path, overrides)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	return cli.NewRuntime(ctx, cfg, cli.CreateLogger(cfg.Logging.Level))
}
