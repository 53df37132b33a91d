package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/stagger/app/plugins"
	"github.com/kilianp07/stagger/config"
	"github.com/kilianp07/stagger/core/metrics"
	"github.com/kilianp07/stagger/infra/runlog"
)

var (
	exportRunID   string
	exportOutcome string
	exportSince   time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print stored epoch records as JSON lines",
	RunE:  exportRecords,
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the available optimizers and record sinks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		for kind, names := range plugins.Catalog() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", kind, names)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "only records of this run")
	exportCmd.Flags().StringVar(&exportOutcome, "outcome", "", "only records with this outcome (optimized, fallback, trivial)")
	exportCmd.Flags().DurationVar(&exportSince, "since", 0, "only records newer than this duration")
	rootCmd.AddCommand(exportCmd, pluginsCmd)
}

func exportRecords(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := runlog.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer store.Close()

	q := runlog.Query{RunID: exportRunID, Outcome: metrics.Outcome(exportOutcome)}
	if exportSince > 0 {
		q.Since = time.Now().Add(-exportSince)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
