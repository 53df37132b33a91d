package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	epochsProcessed *prometheus.CounterVec
	epochVehicles   *prometheus.GaugeVec
	pairsPruned     prometheus.Counter
	optimizerTime   *prometheus.HistogramVec
	violations      prometheus.Counter
	stageDuration   *prometheus.HistogramVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.GaugeVec, prometheus.Counter, *prometheus.HistogramVec, prometheus.Counter, *prometheus.HistogramVec) {
	epochs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagger_epochs_processed_total",
			Help: "Number of epochs processed by outcome",
		},
		[]string{"outcome"},
	)
	veh := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stagger_epoch_vehicles",
			Help: "Vehicles scheduled in the last processed epoch",
		},
		[]string{"kind"},
	)
	pruned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagger_pairs_pruned_total",
			Help: "Vehicle pairs dropped by conflict simplification",
		},
	)
	opt := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stagger_optimizer_duration_seconds",
			Help:    "Wall time of optimizer calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"optimizer"},
	)
	viol := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagger_simplification_violations_total",
			Help: "Pruned pairs found overlapping in a committed solution",
		},
	)
	stage := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stagger_stage_duration_seconds",
			Help:    "Wall time of engine stages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	return epochs, veh, pruned, opt, viol, stage
}

func init() {
	epochsProcessed, epochVehicles, pairsPruned, optimizerTime, violations, stageDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(epochsProcessed, epochVehicles, pairsPruned, optimizerTime, violations, stageDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	epochsProcessed, epochVehicles, pairsPruned, optimizerTime, violations, stageDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

// timeStage starts a timer for stage. The returned func observes and returns
// the elapsed time.
func timeStage(stage string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		stageDuration.WithLabelValues(stage).Observe(d.Seconds())
		return d
	}
}
