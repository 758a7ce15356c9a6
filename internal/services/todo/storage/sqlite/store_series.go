package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

const seriesColumns = `id, user_id, title, description, rrule, start_date,
	high_water, occurrence_count, created_at_ms, updated_at_ms`

// PutSeries inserts or replaces a series row.
func (s *Store) PutSeries(ctx context.Context, record storage.SeriesRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("series id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("series user id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO series (
			id, user_id, title, description, rrule, start_date,
			high_water, occurrence_count, created_at_ms, updated_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			rrule = excluded.rrule,
			start_date = excluded.start_date,
			high_water = excluded.high_water,
			occurrence_count = excluded.occurrence_count,
			updated_at_ms = excluded.updated_at_ms`,
		record.ID, record.UserID, record.Title, record.Description,
		record.Rule, record.StartDate, record.HighWater,
		record.OccurrenceCount, record.CreatedAtMs, record.UpdatedAtMs,
	)
	if err != nil {
		return fmt.Errorf("put series: %w", err)
	}
	return nil
}

// GetSeries loads one series owned by the user.
func (s *Store) GetSeries(ctx context.Context, userID, seriesID string) (storage.SeriesRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SeriesRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+seriesColumns+" FROM series WHERE id = ? AND user_id = ?",
		seriesID, userID,
	)
	return scanSeriesRow(row, "get series")
}

// GetSeriesByID loads one series regardless of owner.
func (s *Store) GetSeriesByID(ctx context.Context, seriesID string) (storage.SeriesRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SeriesRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+seriesColumns+" FROM series WHERE id = ?", seriesID)
	return scanSeriesRow(row, "get series by id")
}

// ListSeries returns the user's series ordered by creation time.
func (s *Store) ListSeries(ctx context.Context, userID string) ([]storage.SeriesRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.querySeries(ctx,
		"SELECT "+seriesColumns+" FROM series WHERE user_id = ? ORDER BY created_at_ms, id",
		userID)
}

// ListAllSeries returns every series across users ordered by id, for the
// background refill sweep.
func (s *Store) ListAllSeries(ctx context.Context) ([]storage.SeriesRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.querySeries(ctx, "SELECT "+seriesColumns+" FROM series ORDER BY id")
}

// DeleteSeries removes one series owned by the user. Occurrences cascade.
func (s *Store) DeleteSeries(ctx context.Context, userID, seriesID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM series WHERE id = ? AND user_id = ?", seriesID, userID)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete series rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ConvertTodoToSeries deletes the todo and creates its replacement series in
// one transaction.
func (s *Store) ConvertTodoToSeries(ctx context.Context, userID, todoID string, series storage.SeriesRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(series.ID) == "" {
		return fmt.Errorf("series id is required")
	}

	return s.inTx(ctx, "convert todo to series", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"DELETE FROM todos WHERE id = ? AND user_id = ?", todoID, userID)
		if err != nil {
			return fmt.Errorf("delete converted todo: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete converted todo rows affected: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO series (
				id, user_id, title, description, rrule, start_date,
				high_water, occurrence_count, created_at_ms, updated_at_ms
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			series.ID, series.UserID, series.Title, series.Description,
			series.Rule, series.StartDate, series.HighWater,
			series.OccurrenceCount, series.CreatedAtMs, series.UpdatedAtMs,
		)
		if err != nil {
			return fmt.Errorf("insert replacement series: %w", err)
		}
		return nil
	})
}

// ReplaceSeriesRule updates the series row and discards pending occurrences
// dated on or after fromDate so the new rule can rematerialize them. Resolved
// occurrences are kept. The high-water mark is reset to the latest surviving
// occurrence date and the occurrence count is adjusted, all in one
// transaction.
func (s *Store) ReplaceSeriesRule(ctx context.Context, series storage.SeriesRecord, fromDate string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(series.ID) == "" {
		return fmt.Errorf("series id is required")
	}
	if strings.TrimSpace(fromDate) == "" {
		return fmt.Errorf("replacement start date is required")
	}

	return s.inTx(ctx, "replace series rule", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM occurrences
			WHERE series_id = ? AND status = 'pending' AND date >= ?`,
			series.ID, fromDate)
		if err != nil {
			return fmt.Errorf("discard pending occurrences: %w", err)
		}
		discarded, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("discard pending occurrences rows affected: %w", err)
		}

		var highWater sql.NullString
		err = tx.QueryRowContext(ctx,
			"SELECT MAX(date) FROM occurrences WHERE series_id = ?",
			series.ID).Scan(&highWater)
		if err != nil {
			return fmt.Errorf("resolve surviving high water: %w", err)
		}

		result, err = tx.ExecContext(ctx, `
			UPDATE series SET
				title = ?, description = ?, rrule = ?, start_date = ?,
				high_water = ?,
				occurrence_count = occurrence_count - ?,
				updated_at_ms = ?
			WHERE id = ? AND user_id = ?`,
			series.Title, series.Description, series.Rule, series.StartDate,
			highWater.String, discarded, series.UpdatedAtMs,
			series.ID, series.UserID,
		)
		if err != nil {
			return fmt.Errorf("update series rule: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update series rule rows affected: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) querySeries(ctx context.Context, query string, args ...any) ([]storage.SeriesRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var records []storage.SeriesRecord
	for rows.Next() {
		var record storage.SeriesRecord
		err := rows.Scan(
			&record.ID, &record.UserID, &record.Title, &record.Description,
			&record.Rule, &record.StartDate, &record.HighWater,
			&record.OccurrenceCount, &record.CreatedAtMs, &record.UpdatedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return records, nil
}

func scanSeriesRow(row *sql.Row, label string) (storage.SeriesRecord, error) {
	var record storage.SeriesRecord
	err := row.Scan(
		&record.ID, &record.UserID, &record.Title, &record.Description,
		&record.Rule, &record.StartDate, &record.HighWater,
		&record.OccurrenceCount, &record.CreatedAtMs, &record.UpdatedAtMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.SeriesRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.SeriesRecord{}, fmt.Errorf("%s: %w", label, err)
	}
	return record, nil
}
