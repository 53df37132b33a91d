package metrics

import (
	coremetrics "github.com/kilianp07/stagger/core/metrics"
)

// init registers built-in sinks.
func init() {
	_ = coremetrics.RegisterSink("nop", func(map[string]any) (coremetrics.EpochRecorder, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterSink("prometheus", func(map[string]any) (coremetrics.EpochRecorder, error) {
		return NewPromSink()
	})
}
