// Package runlog persists one record per processed epoch so runs can be
// inspected after the fact. Records go to a JSONL file, a size-rotated
// JSONL file or a SQLite database.
package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/stagger/config"
	"github.com/kilianp07/stagger/core/metrics"
)

// Query filters stored records. Zero fields match everything.
type Query struct {
	RunID   string
	Outcome metrics.Outcome
	Since   time.Time
}

func (q Query) match(r metrics.EpochRecord) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if !q.Since.IsZero() && r.Timestamp.Before(q.Since) {
		return false
	}
	return true
}

// Store persists epoch records and supports querying.
type Store interface {
	Append(ctx context.Context, rec metrics.EpochRecord) error
	Query(ctx context.Context, q Query) ([]metrics.EpochRecord, error)
	Close() error
}

// New opens the store selected by cfg. A jsonl backend with a positive
// MaxSizeMB rotates its file.
func New(cfg config.LoggingConfig) (Store, error) {
	switch cfg.Backend {
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}

// Recorder adapts a Store to the engine's EpochRecorder.
type Recorder struct {
	Store Store
}

// RecordEpoch appends rec to the store.
func (r Recorder) RecordEpoch(rec metrics.EpochRecord) error {
	return r.Store.Append(context.Background(), rec)
}

// Close closes the underlying store.
func (r Recorder) Close() error { return r.Store.Close() }
