package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pranshuparmar/portman/internal/api"
	"github.com/pranshuparmar/portman/internal/metrics"
)

var newAPIServer = api.NewServer

func newServeCmd(ctx *appContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Scan periodically and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = ctx.cfg.HTTP.Addr
			}
			m := ctx.getManager()
			metrics.EmitBuildInfo(version)

			server, err := newAPIServer(api.Config{
				Addr:      addr,
				Service:   m,
				Logger:    ctx.logger,
				ScanRate:  ctx.cfg.HTTP.ScanRate,
				ScanBurst: ctx.cfg.HTTP.ScanBurst,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "portman API listening on %s (scan every %s)\n", server.Addr(), m.Scheduler().Interval())

			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return m.Scheduler().Run(gctx)
			})
			g.Go(func() error {
				return server.Run(gctx)
			})
			// Scheduler.Run reports the cancellation that stopped it.
			if err := g.Wait(); err != nil && cmd.Context().Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from http.addr)")
	return cmd
}
