package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP, rendering every route on request",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := c.newApp()
			if err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				c.logger.Infof("received %s, shutting down", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.Shutdown(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :3000)")
	_ = c.v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}
