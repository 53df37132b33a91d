package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/stagger/app"
)

var offlineCmd = &cobra.Command{
	Use:   "offline",
	Short: "Compute the unstaggered whole-horizon baseline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()
		return withService(cmd, func(svc *app.Service) error {
			exp, sol, err := svc.Offline(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d vehicles, total travel time %.2f\n", len(sol.Schedules), sol.TotalTravelTime())
			fmt.Fprintf(cmd.OutOrStdout(), "artifacts in %s\n", exp.Dir)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(offlineCmd)
}
