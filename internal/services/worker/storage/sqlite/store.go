// Package sqlite provides SQLite-backed persistence for worker sweep records.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/tidemark/tidemark/internal/platform/storage/sqlitemigrate"
	"github.com/tidemark/tidemark/internal/services/worker/storage"
	"github.com/tidemark/tidemark/internal/services/worker/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed worker sweep persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a worker SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordSweep persists one refill sweep outcome.
func (s *Store) RecordSweep(ctx context.Context, record storage.SweepRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	record.Consumer = strings.TrimSpace(record.Consumer)
	record.Outcome = strings.TrimSpace(record.Outcome)
	record.LastError = strings.TrimSpace(record.LastError)
	if record.Consumer == "" {
		return fmt.Errorf("consumer is required")
	}
	if record.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO refill_attempts (
	consumer,
	series_count,
	materialized_count,
	failure_count,
	outcome,
	last_error,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		record.Consumer,
		record.SeriesCount,
		record.MaterializedCount,
		record.FailureCount,
		record.Outcome,
		record.LastError,
		record.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record sweep: %w", err)
	}
	return nil
}

// ListSweeps lists newest-first sweep records.
func (s *Store) ListSweeps(ctx context.Context, limit int) ([]storage.SweepRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	id,
	consumer,
	series_count,
	materialized_count,
	failure_count,
	outcome,
	last_error,
	created_at
FROM refill_attempts
ORDER BY created_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	defer rows.Close()

	records := make([]storage.SweepRecord, 0, limit)
	for rows.Next() {
		var record storage.SweepRecord
		var createdAt int64
		if err := rows.Scan(
			&record.ID,
			&record.Consumer,
			&record.SeriesCount,
			&record.MaterializedCount,
			&record.FailureCount,
			&record.Outcome,
			&record.LastError,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan sweep: %w", err)
		}
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweeps: %w", err)
	}
	return records, nil
}

var _ storage.SweepStore = (*Store)(nil)
