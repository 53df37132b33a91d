package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/stagger/core/metrics"
)

// PromSink exposes epoch records as Prometheus metrics.
type PromSink struct {
	epochs    *prometheus.CounterVec
	vehicles  *prometheus.CounterVec
	pairs     *prometheus.CounterVec
	optimizer *prometheus.HistogramVec
	delay     prometheus.Gauge
	fallbacks prometheus.Gauge
}

// NewPromSink registers the sink metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		epochs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stagger_epoch_records_total",
			Help: "Epoch records by optimizer and outcome",
		}, []string{"optimizer", "outcome"}),
		vehicles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stagger_epoch_trips_total",
			Help: "Trips scheduled across epochs by kind",
		}, []string{"kind"}),
		pairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stagger_epoch_pairs_total",
			Help: "Candidate vehicle pairs before and after simplification",
		}, []string{"stage"}),
		optimizer: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stagger_epoch_optimizer_seconds",
			Help:    "Optimizer time per epoch",
			Buckets: prometheus.DefBuckets,
		}, []string{"optimizer"}),
		delay: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stagger_run_total_delay_seconds",
			Help: "Total staggering of the last completed run",
		}),
		fallbacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stagger_run_fallback_epochs",
			Help: "Fallback epochs of the last completed run",
		}),
	}
	var err error
	if s.epochs, err = register(reg, s.epochs); err != nil {
		return nil, err
	}
	if s.vehicles, err = register(reg, s.vehicles); err != nil {
		return nil, err
	}
	if s.pairs, err = register(reg, s.pairs); err != nil {
		return nil, err
	}
	if s.optimizer, err = register(reg, s.optimizer); err != nil {
		return nil, err
	}
	if s.delay, err = register(reg, s.delay); err != nil {
		return nil, err
	}
	if s.fallbacks, err = register(reg, s.fallbacks); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordEpoch updates the counters from one epoch record.
func (s *PromSink) RecordEpoch(rec coremetrics.EpochRecord) error {
	s.epochs.WithLabelValues(rec.Optimizer, string(rec.Outcome)).Inc()
	s.vehicles.WithLabelValues("released").Add(float64(rec.Released))
	s.vehicles.WithLabelValues("carried").Add(float64(rec.Carried))
	s.pairs.WithLabelValues("undivided").Add(float64(rec.Pairs))
	s.pairs.WithLabelValues("kept").Add(float64(rec.PairsKept))
	s.optimizer.WithLabelValues(rec.Optimizer).Observe(rec.OptimizerTime.Seconds())
	return nil
}

// RecordRun sets the run gauges.
func (s *PromSink) RecordRun(sum coremetrics.RunSummary) error {
	s.delay.Set(sum.TotalDelay)
	s.fallbacks.Set(float64(len(sum.FallbackEpochs)))
	return nil
}
