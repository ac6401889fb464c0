package main

import (
	"github.com/aretw0/synapse"
	"github.com/aretw0/synapse/internal/cli"
	"github.com/aretw0/synapse/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Generates a graph and exposes it over a JSON API, with metrics and an optional static client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		rt, err := loadRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		server := rt.Config.Server
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			server.Addr = addr
		}
		if dir, _ := cmd.Flags().GetString("static"); cmd.Flags().Changed("static") {
			server.StaticDir = dir
		}

		if cli.IsTerminal(cmd.ErrOrStderr()) {
			tui.PrintBanner(cmd.ErrOrStderr(), synapse.Version)
		}
		return cli.Serve(ctx, rt, server)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().String("static", "", "Directory served under /static/")
}
