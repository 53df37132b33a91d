// Package metrics defines the sinks that record what happened in each epoch
// of a run. Sinks like infra/metrics.PromSink or the infra/runlog stores
// implement EpochRecorder and can be combined with NewMultiSink. NewSink
// returns a MultiSink automatically when several sinks are configured.
package metrics
