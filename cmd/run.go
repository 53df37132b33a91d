package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/stagger/app"
	"github.com/kilianp07/stagger/core/engine"
)

var quiet bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stagger the configured instance epoch by epoch",
	RunE:  runStagger,
}

func init() {
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print epoch progress")
	rootCmd.AddCommand(runCmd)
}

func runStagger(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	return withService(cmd, func(svc *app.Service) error {
		done := make(chan struct{})
		events := svc.Bus().Subscribe()
		go func() {
			defer close(done)
			for ev := range events {
				if !quiet {
					printEvent(cmd.OutOrStdout(), ev)
				}
			}
		}()

		out, err := svc.Run(ctx)
		<-done
		if err != nil {
			return err
		}
		res := out.Result
		fmt.Fprintf(cmd.OutOrStdout(), "rolling horizon delay %.2f, offline delay %.2f, fallback epochs %v\n",
			res.Solution.TotalDelay(), res.Offline.TotalDelay(), res.FallbackEpochs())
		fmt.Fprintf(cmd.OutOrStdout(), "artifacts in %s\n", out.Experiment.Dir)
		return nil
	})
}

func printEvent(w io.Writer, ev engine.Event) {
	switch ev.Kind {
	case engine.EventEpochStarted:
		fmt.Fprintf(w, "[%d/%d] epoch started\n", ev.Epoch+1, ev.Epochs)
	case engine.EventEpochCompleted:
		r := ev.Report
		fmt.Fprintf(w, "[%d/%d] %s: %d released, %d carried, %d/%d pairs kept, delay %.2f\n",
			ev.Epoch+1, ev.Epochs, r.Outcome, r.Released, r.Carried, r.Stats.PairsKept, r.Stats.Pairs, r.TotalDelay)
	case engine.EventRunCompleted:
		fmt.Fprintf(w, "run %s completed\n", ev.RunID)
	}
}
