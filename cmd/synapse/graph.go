package main

import (
	"github.com/aretw0/synapse/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export a generated graph",
	Long:  `Generates a graph and prints it as JSON or as a Mermaid flowchart grouped by layer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		format, _ := cmd.Flags().GetString("format")
		return cli.ExportGraph(rt, format, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", cli.FormatJSON, "Output format: json or mermaid")
}
