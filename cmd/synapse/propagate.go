package main

import (
	"github.com/aretw0/synapse/internal/cli"
	"github.com/spf13/cobra"
)

var propagateCmd = &cobra.Command{
	Use:   "propagate <stimulus>",
	Short: "Propagate a stimulus through a freshly generated graph",
	Long: `Generates a graph, seeds node i with the i-th character of the stimulus and prints
the activations of every step. Use --seed for a reproducible graph.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := loadRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()
		return cli.Propagate(ctx, rt, args[0], cli.PropagateOptions{
			Format: format,
			Color:  cli.IsTerminal(out),
		}, out)
	},
}

func init() {
	rootCmd.AddCommand(propagateCmd)
	propagateCmd.Flags().StringP("format", "f", cli.FormatText, "Output format: text, json or markdown")
	propagateCmd.Flags().Int("steps", 10, "Number of propagation steps")
}
