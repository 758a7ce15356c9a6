package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

// PutTodo inserts or replaces a todo row.
func (s *Store) PutTodo(ctx context.Context, record storage.TodoRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("todo id is required")
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("todo user id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO todos (
			id, user_id, title, description, due_date, completed,
			completed_at_ms, created_at_ms, updated_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			due_date = excluded.due_date,
			completed = excluded.completed,
			completed_at_ms = excluded.completed_at_ms,
			updated_at_ms = excluded.updated_at_ms`,
		record.ID, record.UserID, record.Title, record.Description,
		nullableDate(record.DueDate), boolToInt(record.Completed),
		record.CompletedAtMs, record.CreatedAtMs, record.UpdatedAtMs,
	)
	if err != nil {
		return fmt.Errorf("put todo: %w", err)
	}
	return nil
}

// GetTodo loads one todo owned by the user.
func (s *Store) GetTodo(ctx context.Context, userID, todoID string) (storage.TodoRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TodoRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, due_date, completed,
			completed_at_ms, created_at_ms, updated_at_ms
		FROM todos
		WHERE id = ? AND user_id = ?`,
		todoID, userID,
	)
	record, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.TodoRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.TodoRecord{}, fmt.Errorf("get todo: %w", err)
	}
	return record, nil
}

// ListTodos returns the user's todos matching the filter, most recently
// created first.
func (s *Store) ListTodos(ctx context.Context, userID string, filter storage.TodoFilter) ([]storage.TodoRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, title, description, due_date, completed,
			completed_at_ms, created_at_ms, updated_at_ms
		FROM todos
		WHERE user_id = ?`
	args := []any{userID}
	if filter.Completed != nil {
		query += " AND completed = ?"
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.DueFrom != "" {
		query += " AND due_date IS NOT NULL AND due_date >= ?"
		args = append(args, filter.DueFrom)
	}
	if filter.DueTo != "" {
		query += " AND due_date IS NOT NULL AND due_date <= ?"
		args = append(args, filter.DueTo)
	}
	query += " ORDER BY created_at_ms DESC, id"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var records []storage.TodoRecord
	for rows.Next() {
		record, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return records, nil
}

// DeleteTodo removes one todo owned by the user.
func (s *Store) DeleteTodo(ctx context.Context, userID, todoID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM todos WHERE id = ? AND user_id = ?", todoID, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (storage.TodoRecord, error) {
	var record storage.TodoRecord
	var dueDate sql.NullString
	var completed int
	err := row.Scan(
		&record.ID, &record.UserID, &record.Title, &record.Description,
		&dueDate, &completed, &record.CompletedAtMs,
		&record.CreatedAtMs, &record.UpdatedAtMs,
	)
	if err != nil {
		return storage.TodoRecord{}, err
	}
	record.DueDate = dueDate.String
	record.Completed = completed != 0
	return record, nil
}

func nullableDate(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
