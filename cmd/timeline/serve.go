package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/doctimeline/internal/app"
)

func newServeCommand(c *cli) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP ingest and timeline server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				c.cfg.Port = port
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return app.Serve(ctx, c.cfg, app.NewLogger(c.cfg, cmd.ErrOrStderr(), true))
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (default $PORT or 8090)")
	return cmd
}
