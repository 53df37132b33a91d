package metrics

import "time"

// Outcome classifies how an epoch was resolved.
type Outcome string

const (
	// OutcomeOptimized means the optimizer solution was committed.
	OutcomeOptimized Outcome = "optimized"
	// OutcomeFallback means the optimizer failed and the status quo was kept.
	OutcomeFallback Outcome = "fallback"
	// OutcomeTrivial means no conflicts survived simplification.
	OutcomeTrivial Outcome = "trivial"
)

// EpochRecord summarises one epoch of the rolling horizon.
type EpochRecord struct {
	RunID         string        `json:"run_id"`
	Epoch         int           `json:"epoch"`
	Start         float64       `json:"start"`
	End           float64       `json:"end"`
	Released      int           `json:"released"`
	Carried       int           `json:"carried"`
	Arcs          int           `json:"arcs"`
	ArcsKept      int           `json:"arcs_kept"`
	ArcsCollapsed int           `json:"arcs_collapsed"`
	Pairs         int           `json:"pairs"`
	PairsKept     int           `json:"pairs_kept"`
	Optimizer     string        `json:"optimizer"`
	OptimizerTime time.Duration `json:"optimizer_time"`
	Outcome       Outcome       `json:"outcome"`
	Reason        string        `json:"reason,omitempty"`
	TotalDelay    float64       `json:"total_delay"`
	Violations    int           `json:"violations"`
	Timestamp     time.Time     `json:"timestamp"`
}

// RunSummary closes a run.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	Epochs         int       `json:"epochs"`
	Vehicles       int       `json:"vehicles"`
	FallbackEpochs []int     `json:"fallback_epochs"`
	TotalDelay     float64   `json:"total_delay"`
	OfflineDelay   float64   `json:"offline_delay"`
	Timestamp      time.Time `json:"timestamp"`
}
