package plugins

import (
	"github.com/kilianp07/stagger/config"
	"github.com/kilianp07/stagger/core/factory"
	coremetrics "github.com/kilianp07/stagger/core/metrics"
	"github.com/kilianp07/stagger/core/optimizer"
	_ "github.com/kilianp07/stagger/infra/metrics" // nop and prometheus sinks
	"github.com/kilianp07/stagger/infra/runlog"
)

func init() {
	mustRegister(optimizer.Register("noop", func(map[string]any) (optimizer.Optimizer, error) {
		return optimizer.NoopOptimizer{}, nil
	}))
	mustRegister(optimizer.Register("lp", func(conf map[string]any) (optimizer.Optimizer, error) {
		var lc optimizer.LPConfig
		if err := factory.Decode(conf, &lc); err != nil {
			return nil, err
		}
		return optimizer.NewLPOptimizer(lc), nil
	}))

	mustRegister(coremetrics.RegisterSink("runlog", func(conf map[string]any) (coremetrics.EpochRecorder, error) {
		var lc config.LoggingConfig
		if err := factory.Decode(conf, &lc); err != nil {
			return nil, err
		}
		lc.SetDefaults()
		if err := lc.Validate(); err != nil {
			return nil, err
		}
		store, err := runlog.New(lc)
		if err != nil {
			return nil, err
		}
		return runlog.Recorder{Store: store}, nil
	}))
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
