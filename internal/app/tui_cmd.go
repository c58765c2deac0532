package app

import (
	"github.com/spf13/cobra"

	"github.com/pranshuparmar/portman/internal/tui"
)

func newTuiCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive port monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Start(cmd.Context(), ctx.getManager(), version, ctx.cfg.Scan.Interval)
		},
	}
}
