package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/synapse"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of synapse",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "synapse version %s\n", strings.TrimSpace(synapse.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
