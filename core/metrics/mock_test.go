package metrics

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct{ mock.Mock }

func (m *mockSink) RecordEpoch(rec EpochRecord) error {
	return m.Called(rec).Error(0)
}

func (m *mockSink) RecordRun(sum RunSummary) error {
	return m.Called(sum).Error(0)
}

func TestMultiSinkForwardsRecords(t *testing.T) {
	s := &mockSink{}
	rec := EpochRecord{RunID: "r", Epoch: 2, Outcome: OutcomeFallback, Reason: "optimizer timeout"}
	sum := RunSummary{RunID: "r", Epochs: 3, FallbackEpochs: []int{2}}
	s.On("RecordEpoch", rec).Return(nil).Once()
	s.On("RecordRun", sum).Return(nil).Once()

	m := NewMultiSink(s, NopSink{})
	require.NoError(t, m.RecordEpoch(rec))
	require.NoError(t, m.RecordRun(sum))
	s.AssertExpectations(t)
}
