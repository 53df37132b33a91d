package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/stagger/core/metrics"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS epoch_records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT,
        epoch INTEGER,
        outcome TEXT,
        ts INTEGER,
        record TEXT
    )`,
	`CREATE INDEX IF NOT EXISTS epoch_records_run ON epoch_records (run_id, epoch)`,
}

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec metrics.EpochRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO epoch_records (run_id, epoch, outcome, ts, record) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Epoch, string(rec.Outcome), rec.Timestamp.UnixNano(), string(b))
	return err
}

// Query returns records matching q ordered by run and epoch.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]metrics.EpochRecord, error) {
	var args []any
	query := `SELECT record FROM epoch_records WHERE 1=1`
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if q.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, string(q.Outcome))
	}
	if !q.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Since.UnixNano())
	}
	query += ` ORDER BY run_id, epoch, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []metrics.EpochRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r metrics.EpochRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
