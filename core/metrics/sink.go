package metrics

// EpochRecorder records one record per processed epoch.
type EpochRecorder interface {
	RecordEpoch(rec EpochRecord) error
}

// RunRecorder records the end of a run.
type RunRecorder interface {
	RecordRun(sum RunSummary) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordEpoch(EpochRecord) error { return nil }
func (NopSink) RecordRun(RunSummary) error    { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []EpochRecorder
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...EpochRecorder) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEpoch forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordEpoch(rec EpochRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordEpoch(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun forwards the summary to sinks that support it.
func (m *MultiSink) RecordRun(sum RunSummary) error {
	for _, s := range m.Sinks {
		if rr, ok := s.(RunRecorder); ok {
			if err := rr.RecordRun(sum); err != nil {
				return err
			}
		}
	}
	return nil
}
