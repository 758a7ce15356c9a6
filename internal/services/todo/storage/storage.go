// Package storage defines persistence contracts for todos, recurring series,
// and materialized occurrences.
package storage

import (
	"context"
	"time"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// TodoRecord is one persisted one-off task row.
type TodoRecord struct {
	ID            string
	UserID        string
	Title         string
	Description   string
	DueDate       string // ISO date, empty when unset
	Completed     bool
	CompletedAtMs int64
	CreatedAtMs   int64
	UpdatedAtMs   int64
}

// SeriesRecord is one persisted recurring series row. HighWater is the
// furthest materialized ISO date, empty before the first refill.
type SeriesRecord struct {
	ID              string
	UserID          string
	Title           string
	Description     string
	Rule            string
	StartDate       string
	HighWater       string
	OccurrenceCount int
	CreatedAtMs     int64
	UpdatedAtMs     int64
}

// OccurrenceRecord is one persisted occurrence row. (SeriesID, Date) is
// unique at the schema level.
type OccurrenceRecord struct {
	ID            string
	SeriesID      string
	Date          string
	Status        string
	CompletedAtMs int64
	CreatedAtMs   int64
	UpdatedAtMs   int64
}

// TodoFilter narrows ListTodos results. Zero values mean no constraint.
type TodoFilter struct {
	Completed *bool
	DueFrom   string
	DueTo     string
}

// TodoStore persists one-off tasks.
type TodoStore interface {
	PutTodo(ctx context.Context, record TodoRecord) error
	GetTodo(ctx context.Context, userID, todoID string) (TodoRecord, error)
	ListTodos(ctx context.Context, userID string, filter TodoFilter) ([]TodoRecord, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error
}

// SeriesStore persists recurring series.
type SeriesStore interface {
	PutSeries(ctx context.Context, record SeriesRecord) error
	GetSeries(ctx context.Context, userID, seriesID string) (SeriesRecord, error)
	// GetSeriesByID loads a series regardless of owner; used to resolve
	// occurrence ownership and by the background refill sweep.
	GetSeriesByID(ctx context.Context, seriesID string) (SeriesRecord, error)
	ListSeries(ctx context.Context, userID string) ([]SeriesRecord, error)
	// ListAllSeries returns every series across users for the refill sweep.
	ListAllSeries(ctx context.Context) ([]SeriesRecord, error)
	DeleteSeries(ctx context.Context, userID, seriesID string) error
	// ConvertTodoToSeries atomically deletes a plain todo and creates the
	// series that replaces it.
	ConvertTodoToSeries(ctx context.Context, userID, todoID string, series SeriesRecord) error
	// ReplaceSeriesRule atomically updates the series row, deletes pending
	// occurrences dated on or after fromDate, resets the high-water mark to
	// the latest surviving occurrence date, and adjusts the occurrence count.
	ReplaceSeriesRule(ctx context.Context, series SeriesRecord, fromDate string) error
}

// OccurrenceStore persists materialized occurrences.
type OccurrenceStore interface {
	// MaterializeOccurrences inserts occurrences with insert-if-absent
	// semantics and advances the series high-water mark and occurrence count
	// in the same transaction. Returns the number of rows actually inserted.
	MaterializeOccurrences(ctx context.Context, seriesID string, occurrences []OccurrenceRecord, highWater string) (int, error)
	GetOccurrence(ctx context.Context, occurrenceID string) (OccurrenceRecord, error)
	// ListOccurrences returns occurrences for the user's series with dates in
	// [from, to], ordered by date.
	ListOccurrences(ctx context.Context, userID, from, to string) ([]OccurrenceRecord, error)
	SetOccurrenceStatus(ctx context.Context, occurrenceID, status string, completedAtMs, updatedAtMs int64) error
}

// Store combines all persistence concerns behind one handle.
type Store interface {
	TodoStore
	SeriesStore
	OccurrenceStore
	Close() error
}

// ToMillis converts an instant to UTC UnixMilli, mapping the zero time to 0.
func ToMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

// FromMillis converts UTC UnixMilli to an instant, mapping 0 to the zero time.
func FromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
