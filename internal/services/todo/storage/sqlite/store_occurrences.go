package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

// MaterializeOccurrences inserts the occurrences with insert-if-absent
// semantics and advances the series high-water mark and occurrence count by
// the rows actually inserted, all in one transaction. Concurrent sweeps over
// the same series converge because duplicate dates are ignored and the
// high-water mark only moves forward.
func (s *Store) MaterializeOccurrences(ctx context.Context, seriesID string, occurrences []storage.OccurrenceRecord, highWater string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if strings.TrimSpace(seriesID) == "" {
		return 0, fmt.Errorf("series id is required")
	}

	var touchedAtMs int64
	for _, occurrence := range occurrences {
		if occurrence.UpdatedAtMs > touchedAtMs {
			touchedAtMs = occurrence.UpdatedAtMs
		}
	}

	var inserted int
	err := s.inTx(ctx, "materialize occurrences", func(tx *sql.Tx) error {
		for _, occurrence := range occurrences {
			result, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO occurrences (
					id, series_id, date, status, completed_at_ms,
					created_at_ms, updated_at_ms
				) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				occurrence.ID, seriesID, occurrence.Date, occurrence.Status,
				occurrence.CompletedAtMs, occurrence.CreatedAtMs,
				occurrence.UpdatedAtMs,
			)
			if err != nil {
				return fmt.Errorf("insert occurrence %s: %w", occurrence.Date, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("insert occurrence rows affected: %w", err)
			}
			inserted += int(affected)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE series SET
				high_water = MAX(high_water, ?),
				occurrence_count = occurrence_count + ?,
				updated_at_ms = MAX(updated_at_ms, ?)
			WHERE id = ?`,
			highWater, inserted, touchedAtMs, seriesID,
		)
		if err != nil {
			return fmt.Errorf("advance series high water: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("advance series rows affected: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetOccurrence loads one occurrence by id.
func (s *Store) GetOccurrence(ctx context.Context, occurrenceID string) (storage.OccurrenceRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OccurrenceRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, series_id, date, status, completed_at_ms,
			created_at_ms, updated_at_ms
		FROM occurrences
		WHERE id = ?`,
		occurrenceID,
	)
	var record storage.OccurrenceRecord
	err := row.Scan(
		&record.ID, &record.SeriesID, &record.Date, &record.Status,
		&record.CompletedAtMs, &record.CreatedAtMs, &record.UpdatedAtMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.OccurrenceRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.OccurrenceRecord{}, fmt.Errorf("get occurrence: %w", err)
	}
	return record, nil
}

// ListOccurrences returns occurrences for the user's series dated within
// [from, to], ordered by date then series.
func (s *Store) ListOccurrences(ctx context.Context, userID, from, to string) ([]storage.OccurrenceRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT o.id, o.series_id, o.date, o.status, o.completed_at_ms,
			o.created_at_ms, o.updated_at_ms
		FROM occurrences o
		JOIN series s ON s.id = o.series_id
		WHERE s.user_id = ? AND o.date >= ? AND o.date <= ?
		ORDER BY o.date, o.series_id, o.id`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	defer rows.Close()

	var records []storage.OccurrenceRecord
	for rows.Next() {
		var record storage.OccurrenceRecord
		err := rows.Scan(
			&record.ID, &record.SeriesID, &record.Date, &record.Status,
			&record.CompletedAtMs, &record.CreatedAtMs, &record.UpdatedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occurrences: %w", err)
	}
	return records, nil
}

// SetOccurrenceStatus updates one occurrence's status and timestamps.
func (s *Store) SetOccurrenceStatus(ctx context.Context, occurrenceID, status string, completedAtMs, updatedAtMs int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
		UPDATE occurrences
		SET status = ?, completed_at_ms = ?, updated_at_ms = ?
		WHERE id = ?`,
		status, completedAtMs, updatedAtMs, occurrenceID,
	)
	if err != nil {
		return fmt.Errorf("set occurrence status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set occurrence status rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
