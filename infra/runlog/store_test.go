package runlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stagger/config"
	"github.com/kilianp07/stagger/core/metrics"
)

func record(run string, epoch int, outcome metrics.Outcome, ts time.Time) metrics.EpochRecord {
	return metrics.EpochRecord{
		RunID:     run,
		Epoch:     epoch,
		Start:     float64(epoch) * 30,
		End:       float64(epoch+1) * 30,
		Released:  3,
		Optimizer: "lp",
		Outcome:   outcome,
		Timestamp: ts,
	}
}

// exercise runs the same scenario against every backend.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, record("a", 0, metrics.OutcomeOptimized, t0)))
	require.NoError(t, s.Append(ctx, record("a", 1, metrics.OutcomeFallback, t0.Add(time.Second))))
	require.NoError(t, s.Append(ctx, record("b", 0, metrics.OutcomeFallback, t0.Add(2*time.Second))))

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	runA, err := s.Query(ctx, Query{RunID: "a"})
	require.NoError(t, err)
	require.Len(t, runA, 2)
	assert.Equal(t, 0, runA[0].Epoch)
	assert.Equal(t, 60.0, runA[1].End)

	fb, err := s.Query(ctx, Query{Outcome: metrics.OutcomeFallback, Since: t0.Add(1500 * time.Millisecond)})
	require.NoError(t, err)
	require.Len(t, fb, 1)
	assert.Equal(t, "b", fb[0].RunID)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "nested", "runs.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"), 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestRotatingJSONLStoreQueriesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	rec := record("big", 0, metrics.OutcomeOptimized, time.Now())
	rec.Reason = fmt.Sprintf("%0600d", 0)
	const n = 1500
	for i := 0; i < n; i++ {
		rec.Epoch = i
		require.NoError(t, s.Append(ctx, rec))
	}
	files, err := filepath.Glob(filepath.Join(dir, "runs*"))
	require.NoError(t, err)
	assert.Greater(t, len(files), 1, "expected rotated files")

	out, err := s.Query(ctx, Query{RunID: "big"})
	require.NoError(t, err)
	require.Len(t, out, n)
	assert.Equal(t, n-1, out[n-1].Epoch)
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		cfg  config.LoggingConfig
		want any
	}{
		{config.LoggingConfig{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")}, &JSONLStore{}},
		{config.LoggingConfig{Backend: "jsonl", Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 1}, &RotatingJSONLStore{}},
		{config.LoggingConfig{Backend: "sqlite", Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}},
	}
	for _, c := range cases {
		s, err := New(c.cfg)
		require.NoError(t, err)
		assert.IsType(t, c.want, s)
		require.NoError(t, s.Close())
	}
	_, err := New(config.LoggingConfig{Backend: "csv", Path: "x"})
	assert.Error(t, err)
}

func TestRecorderAppends(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	var rec metrics.EpochRecorder = Recorder{Store: s}
	require.NoError(t, rec.RecordEpoch(record("r", 4, metrics.OutcomeTrivial, time.Now())))
	out, err := s.Query(context.Background(), Query{Outcome: metrics.OutcomeTrivial})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 4, out[0].Epoch)
}
