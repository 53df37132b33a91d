// Package app wires configuration, infrastructure and the engine into a
// runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/kilianp07/stagger/app/plugins" // built-in optimizers and sinks
	"github.com/kilianp07/stagger/config"
	"github.com/kilianp07/stagger/core/engine"
	"github.com/kilianp07/stagger/core/factory"
	coremetrics "github.com/kilianp07/stagger/core/metrics"
	"github.com/kilianp07/stagger/core/model"
	"github.com/kilianp07/stagger/core/monitoring"
	"github.com/kilianp07/stagger/core/optimizer"
	"github.com/kilianp07/stagger/core/reconstruct"
	"github.com/kilianp07/stagger/infra/graphio"
	"github.com/kilianp07/stagger/infra/logger"
	"github.com/kilianp07/stagger/infra/metrics"
	inframon "github.com/kilianp07/stagger/infra/monitoring"
	"github.com/kilianp07/stagger/infra/runlog"
	"github.com/kilianp07/stagger/pkg/export"
)

// Service runs one staggering experiment end to end.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	opt     optimizer.Optimizer
	sink    coremetrics.EpochRecorder
	mon     monitoring.Monitor
	bus     *engine.Bus
	closers []io.Closer
	stdin   io.Reader
	gather  prometheus.Gatherer
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStdin sets the reader used by the console input source.
func WithStdin(r io.Reader) Option { return func(s *Service) { s.stdin = r } }

// WithLogger overrides the service logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithGatherer sets the registry exposed on the metrics endpoint.
func WithGatherer(g prometheus.Gatherer) Option { return func(s *Service) { s.gather = g } }

// WithClock overrides the time source naming experiment directories.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// Outcome is what a run leaves behind.
type Outcome struct {
	Result     *engine.Result
	Experiment *export.Experiment
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		log:    logger.New("service"),
		bus:    engine.NewBus(),
		stdin:  os.Stdin,
		gather: prometheus.DefaultGatherer,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}

	opt, err := optimizer.New(cfg.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	s.opt = opt

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)
	s.mon = mon

	if err := s.buildSinks(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) buildSinks() error {
	var sinks []coremetrics.EpochRecorder
	if s.cfg.Metrics.PrometheusEnabled {
		ps, err := metrics.NewPromSink()
		if err != nil {
			return fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, ps)
	}

	store, err := runlog.New(s.cfg.Logging)
	if err != nil {
		return fmt.Errorf("epoch store: %w", err)
	}
	s.closers = append(s.closers, store)
	sinks = append(sinks, runlog.Recorder{Store: store})

	for _, mc := range s.cfg.Metrics.Sinks {
		sink, err := coremetrics.NewSink([]factory.ModuleConfig{mc})
		if err != nil {
			return fmt.Errorf("sink %s: %w", mc.Type, err)
		}
		if c, ok := sink.(io.Closer); ok {
			s.closers = append(s.closers, c)
		}
		sinks = append(sinks, sink)
	}
	s.sink = coremetrics.NewMultiSink(sinks...)
	return nil
}

// Bus returns the progress event bus. Subscribe before calling Run.
func (s *Service) Bus() *engine.Bus { return s.bus }

// LoadInstance reads the network and the global instance.
func (s *Service) LoadInstance() (*model.Instance, error) {
	net, err := graphio.LoadNetwork(s.cfg.Network.Path, s.cfg.Network.ArcParams())
	if err != nil {
		return nil, err
	}
	for _, m := range graphio.CheckGeometry(net, graphio.DefaultGeometryTolerance) {
		s.log.Warnf("arc %s: length %.1fm differs from geometry %.1fm", m.Arc, m.Length, m.Geodesic)
	}
	if s.cfg.Instance.InputSource == config.InputConsole {
		return graphio.DecodeInstance(s.stdin, net)
	}
	return graphio.LoadInstance(s.cfg.Instance.Path, net)
}

// Run solves the configured instance epoch by epoch and writes the
// experiment directory. The event bus is closed when Run returns.
func (s *Service) Run(ctx context.Context) (*Outcome, error) {
	defer s.bus.Close()
	defer monitoring.Recover()

	inst, err := s.LoadInstance()
	if err != nil {
		return nil, err
	}
	s.startMetricsServer(ctx)

	eng, err := engine.New(s.cfg.Engine, s.opt,
		engine.WithLogger(logger.New("engine")),
		engine.WithRecorder(s.sink),
		engine.WithMonitor(s.mon),
		engine.WithEventBus(s.bus),
	)
	if err != nil {
		return nil, err
	}
	res, err := eng.Run(ctx, inst)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.mon.CaptureException(err, map[string]string{"run_id": eng.RunID()})
		}
		return nil, err
	}

	exp, err := export.NewExperiment(s.cfg.Output.Dir, res.RunID, s.now())
	if err != nil {
		return nil, err
	}
	if err := exp.WriteResult(res, inst, s.cfg.Network.Path); err != nil {
		return nil, err
	}
	s.log.Infof("run %s written to %s", res.RunID, exp.Dir)
	return &Outcome{Result: res, Experiment: exp}, nil
}

// Offline computes only the whole-horizon status quo and writes it with the
// instance files.
func (s *Service) Offline(ctx context.Context) (*export.Experiment, model.Solution, error) {
	inst, err := s.LoadInstance()
	if err != nil {
		return nil, model.Solution{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, model.Solution{}, err
	}
	sol, err := reconstruct.Offline(inst)
	if err != nil {
		return nil, model.Solution{}, err
	}
	exp, err := export.NewExperiment(s.cfg.Output.Dir, "", s.now())
	if err != nil {
		return nil, model.Solution{}, err
	}
	if err := exp.WriteSolution(export.OfflineName, sol); err != nil {
		return nil, model.Solution{}, err
	}
	if err := exp.WriteInstance(inst, s.cfg.Network.Path); err != nil {
		return nil, model.Solution{}, err
	}
	return exp, sol, nil
}

func (s *Service) startMetricsServer(ctx context.Context) {
	if !s.cfg.Metrics.PrometheusEnabled {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, s.cfg.Metrics.Addr(), s.gather, s.log); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// Close releases the record stores and flushes the monitor.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	if s.mon != nil {
		s.mon.Flush(2 * time.Second)
	}
	return errors.Join(errs...)
}
