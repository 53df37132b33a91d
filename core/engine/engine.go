package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/stagger/core/epoch"
	"github.com/kilianp07/stagger/core/logger"
	"github.com/kilianp07/stagger/core/metrics"
	"github.com/kilianp07/stagger/core/model"
	"github.com/kilianp07/stagger/core/monitoring"
	"github.com/kilianp07/stagger/core/optimizer"
	"github.com/kilianp07/stagger/core/reconstruct"
	"github.com/kilianp07/stagger/core/simplify"
	"github.com/kilianp07/stagger/core/statusquo"
)

// ErrInvalidSolution is returned for optimizer output that does not describe
// a staggering of the epoch status quo.
var ErrInvalidSolution = errors.New("invalid optimizer solution")

const delayTolerance = 1e-6

// partition splits the instance into epochs. Tests override it.
var partition = epoch.Partition

// EpochReport describes how one epoch was resolved.
type EpochReport struct {
	Index         int             `json:"index"`
	Start         float64         `json:"start"`
	End           float64         `json:"end"`
	Released      int             `json:"released"`
	Carried       int             `json:"carried"`
	Stats         simplify.Stats  `json:"stats"`
	Outcome       metrics.Outcome `json:"outcome"`
	Reason        string          `json:"reason,omitempty"`
	OptimizerTime time.Duration   `json:"optimizer_time"`
	TotalDelay    float64         `json:"total_delay"`
	Violations    int             `json:"violations"`
}

// Result holds the two top-level outputs of a run and the per-epoch trail
// that produced them.
type Result struct {
	RunID     string
	Epochs    []*model.EpochInstance
	StatusQuo []model.StatusQuo
	Solutions []model.Solution
	Reports   []EpochReport
	// Solution is the reconstructed rolling-horizon solution.
	Solution model.Solution
	// Offline is the whole-horizon baseline. It never feeds back into Solution.
	Offline model.Solution
}

// FallbackEpochs lists the epochs that kept their status quo after an
// optimizer failure.
func (r *Result) FallbackEpochs() []int {
	var out []int
	for _, rep := range r.Reports {
		if rep.Outcome == metrics.OutcomeFallback {
			out = append(out, rep.Index)
		}
	}
	return out
}

// Engine runs the epoch loop.
type Engine struct {
	cfg   Config
	opt   optimizer.Optimizer
	simp  *simplify.Simplifier
	log   logger.Logger
	rec   metrics.EpochRecorder
	mon   monitoring.Monitor
	bus   *Bus
	runID string
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option { return func(e *Engine) { e.log = l } }

// WithRecorder sets the epoch record sink.
func WithRecorder(r metrics.EpochRecorder) Option { return func(e *Engine) { e.rec = r } }

// WithMonitor sets the error monitor.
func WithMonitor(m monitoring.Monitor) Option { return func(e *Engine) { e.mon = m } }

// WithEventBus publishes progress events on b.
func WithEventBus(b *Bus) Option { return func(e *Engine) { e.bus = b } }

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option { return func(e *Engine) { e.runID = id } }

// New builds an engine. Zero config fields take their defaults.
func New(cfg Config, opt optimizer.Optimizer, opts ...Option) (*Engine, error) {
	if opt == nil {
		return nil, errors.New("engine: nil optimizer")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg: cfg,
		opt: opt,
		log: logger.NopLogger{},
		rec: metrics.NopSink{},
		mon: monitoring.NopMonitor{},
	}
	for _, o := range opts {
		o(e)
	}
	simp, err := simplify.New(cfg.SimplifyConfig(), e.log)
	if err != nil {
		return nil, err
	}
	e.simp = simp
	if e.runID == "" {
		e.runID = uuid.NewString()
	}
	return e, nil
}

// RunID identifies the runs of this engine in records and events.
func (e *Engine) RunID() string { return e.runID }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run processes inst epoch by epoch and reconstructs the full-horizon
// solution. Cancelling ctx aborts between and during optimizer calls.
func (e *Engine) Run(ctx context.Context, inst *model.Instance) (*Result, error) {
	stop := timeStage("partition")
	epochs, err := partition(inst, e.cfg.EpochConfig())
	if err == nil {
		err = epoch.CheckPartition(inst, epochs)
	}
	stop()
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	e.log.Infof("run %s: %d vehicles in %d epochs of %gs", e.runID, len(inst.Vehicles), len(epochs), e.cfg.EpochSize)

	res := &Result{
		RunID:     e.runID,
		Epochs:    epochs,
		StatusQuo: make([]model.StatusQuo, len(epochs)),
		Solutions: make([]model.Solution, len(epochs)),
		Reports:   make([]EpochReport, len(epochs)),
	}
	for k, ep := range epochs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.publish(Event{Kind: EventEpochStarted, Epoch: k, Epochs: len(epochs)})

		sq, sol, rep, err := e.runEpoch(ctx, ep)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", k, err)
		}
		res.StatusQuo[k], res.Solutions[k], res.Reports[k] = sq, sol, rep

		if k+1 < len(epochs) {
			stop := timeStage("propagate")
			carried, err := epoch.Propagate(ep, sq, sol, epochs[k+1], inst)
			stop()
			if err != nil {
				return nil, fmt.Errorf("epoch %d: propagate: %w", k, err)
			}
			if len(carried) > 0 {
				e.log.Debugf("epoch %d: carried %d vehicles into epoch %d", k, len(carried), k+1)
			}
		}
		e.record(rep)
		e.publish(Event{Kind: EventEpochCompleted, Epoch: k, Epochs: len(epochs), Report: &res.Reports[k]})
	}

	stop = timeStage("reconstruct")
	res.Solution, err = reconstruct.Reconstruct(epochs, res.Solutions, inst)
	stop()
	if err != nil {
		return nil, err
	}
	stop = timeStage("offline")
	res.Offline, err = reconstruct.Offline(inst)
	stop()
	if err != nil {
		return nil, err
	}

	if rr, ok := e.rec.(metrics.RunRecorder); ok {
		sum := metrics.RunSummary{
			RunID:          e.runID,
			Epochs:         len(epochs),
			Vehicles:       len(inst.Vehicles),
			FallbackEpochs: res.FallbackEpochs(),
			TotalDelay:     res.Solution.TotalDelay(),
			OfflineDelay:   res.Offline.TotalDelay(),
			Timestamp:      time.Now(),
		}
		if err := rr.RecordRun(sum); err != nil {
			e.log.Warnf("record run: %v", err)
		}
	}
	e.publish(Event{Kind: EventRunCompleted, Epoch: len(epochs) - 1, Epochs: len(epochs)})
	e.log.Infof("run %s: total delay %.2f, %d fallback epochs", e.runID, res.Solution.TotalDelay(), len(res.FallbackEpochs()))
	return res, nil
}

func (e *Engine) runEpoch(ctx context.Context, ep *model.EpochInstance) (model.StatusQuo, model.Solution, EpochReport, error) {
	rep := EpochReport{Index: ep.Index, Start: ep.Start, End: ep.End, Released: len(ep.Released), Carried: len(ep.Carried)}
	epochVehicles.WithLabelValues("released").Set(float64(rep.Released))
	epochVehicles.WithLabelValues("carried").Set(float64(rep.Carried))

	stop := timeStage("status_quo")
	sq, err := statusquo.Build(ep)
	stop()
	if err != nil {
		return nil, model.Solution{}, rep, err
	}
	if ep.Size() == 0 {
		rep.Outcome = metrics.OutcomeTrivial
		epochsProcessed.WithLabelValues(string(rep.Outcome)).Inc()
		return sq, model.SolutionFromStatusQuo(sq), rep, nil
	}

	stop = timeStage("simplify")
	simplified, err := e.simp.Simplify(ep, sq)
	stop()
	if err != nil {
		return nil, model.Solution{}, rep, err
	}
	rep.Stats = simplified.Stats
	pairsPruned.Add(float64(simplified.Stats.PairsDropped()))

	p := optimizer.FromSimplified(ep.Index, simplified, e.cfg.TimeBudget())
	sol, err := e.optimize(ctx, p, &rep)
	if err != nil {
		if ctx.Err() != nil {
			return nil, model.Solution{}, rep, ctx.Err()
		}
		e.log.Warnf("epoch %d: falling back to status quo: %v", ep.Index, err)
		if !errors.Is(err, optimizer.ErrInfeasible) && !errors.Is(err, optimizer.ErrTimeout) {
			e.mon.CaptureException(err, monitoring.EpochTags(e.runID, ep.Index, "optimize"))
		}
		rep.Outcome = metrics.OutcomeFallback
		rep.Reason = err.Error()
		sol = model.SolutionFromStatusQuo(sq)
	} else {
		rep.Outcome = metrics.OutcomeOptimized
	}
	rep.TotalDelay = sol.TotalDelay()

	stop = timeStage("verify")
	verr := simplified.Verify(sol)
	stop()
	if verr != nil {
		rep.Violations = countViolations(verr)
		violations.Add(float64(rep.Violations))
		e.mon.CaptureException(verr, monitoring.EpochTags(e.runID, ep.Index, "verify"))
		if e.cfg.Debug {
			return nil, model.Solution{}, rep, verr
		}
		e.log.Errorf("epoch %d: %v", ep.Index, verr)
	}
	epochsProcessed.WithLabelValues(string(rep.Outcome)).Inc()
	return sq, sol, rep, nil
}

// optimize calls the optimizer and checks its output against the problem.
// Vehicles the optimizer leaves out keep their status quo.
func (e *Engine) optimize(ctx context.Context, p optimizer.Problem, rep *EpochReport) (model.Solution, error) {
	start := time.Now()
	sol, err := e.opt.Optimize(ctx, p)
	rep.OptimizerTime = time.Since(start)
	optimizerTime.WithLabelValues(e.opt.Name()).Observe(rep.OptimizerTime.Seconds())
	if err != nil {
		return model.Solution{}, err
	}
	return complete(p, sol)
}

func complete(p optimizer.Problem, sol model.Solution) (model.Solution, error) {
	out := model.NewSolution()
	for id := range sol.Schedules {
		if _, ok := p.StatusQuo[id]; !ok {
			return model.Solution{}, fmt.Errorf("%w: unknown vehicle %s", ErrInvalidSolution, id)
		}
	}
	for id, base := range p.StatusQuo {
		sch, ok := sol.Schedules[id]
		if !ok {
			out.Schedules[id] = base.Clone()
			out.Delays[id] = 0
			continue
		}
		if sch.Offset != base.Offset || len(sch.Path) != len(base.Path) || len(sch.Times) != len(base.Times) {
			return model.Solution{}, fmt.Errorf("%w: vehicle %s changed its path", ErrInvalidSolution, id)
		}
		for i := range sch.Path {
			if sch.Path[i] != base.Path[i] {
				return model.Solution{}, fmt.Errorf("%w: vehicle %s changed its path", ErrInvalidSolution, id)
			}
		}
		d := sol.Delays[id]
		if math.IsNaN(d) || d < -delayTolerance || d > p.Staggering[id]+delayTolerance {
			return model.Solution{}, fmt.Errorf("%w: delay %v of %s outside [0, %v]", ErrInvalidSolution, d, id, p.Staggering[id])
		}
		out.Schedules[id] = sch.Clone()
		out.Delays[id] = d
	}
	return out, nil
}

func countViolations(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}

func (e *Engine) record(rep EpochReport) {
	rec := metrics.EpochRecord{
		RunID:         e.runID,
		Epoch:         rep.Index,
		Start:         rep.Start,
		End:           rep.End,
		Released:      rep.Released,
		Carried:       rep.Carried,
		Arcs:          rep.Stats.Arcs,
		ArcsKept:      rep.Stats.ArcsKept,
		ArcsCollapsed: rep.Stats.ArcsCollapse,
		Pairs:         rep.Stats.Pairs,
		PairsKept:     rep.Stats.PairsKept,
		Optimizer:     e.opt.Name(),
		OptimizerTime: rep.OptimizerTime,
		Outcome:       rep.Outcome,
		Reason:        rep.Reason,
		TotalDelay:    rep.TotalDelay,
		Violations:    rep.Violations,
		Timestamp:     time.Now(),
	}
	if err := e.rec.RecordEpoch(rec); err != nil {
		e.log.Warnf("epoch %d: record: %v", rep.Index, err)
	}
}

func (e *Engine) publish(ev Event) {
	if e.bus == nil {
		return
	}
	ev.RunID = e.runID
	ev.Time = time.Now()
	e.bus.Publish(ev)
}
