// Package memory provides an in-memory implementation of the todo storage
// contracts, used by the console app and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

// Store keeps all state in process memory. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	todos       map[string]storage.TodoRecord
	series      map[string]storage.SeriesRecord
	occurrences map[string]storage.OccurrenceRecord
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		todos:       make(map[string]storage.TodoRecord),
		series:      make(map[string]storage.SeriesRecord),
		occurrences: make(map[string]storage.OccurrenceRecord),
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutTodo inserts or replaces a todo.
func (s *Store) PutTodo(ctx context.Context, record storage.TodoRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("todo id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos[record.ID] = record
	return nil
}

// GetTodo loads one todo owned by the user.
func (s *Store) GetTodo(ctx context.Context, userID, todoID string) (storage.TodoRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TodoRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.todos[todoID]
	if !ok || record.UserID != userID {
		return storage.TodoRecord{}, storage.ErrNotFound
	}
	return record, nil
}

// ListTodos returns the user's todos matching the filter, most recently
// created first.
func (s *Store) ListTodos(ctx context.Context, userID string, filter storage.TodoFilter) ([]storage.TodoRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []storage.TodoRecord
	for _, record := range s.todos {
		if record.UserID != userID {
			continue
		}
		if filter.Completed != nil && record.Completed != *filter.Completed {
			continue
		}
		if filter.DueFrom != "" && (record.DueDate == "" || record.DueDate < filter.DueFrom) {
			continue
		}
		if filter.DueTo != "" && (record.DueDate == "" || record.DueDate > filter.DueTo) {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAtMs != records[j].CreatedAtMs {
			return records[i].CreatedAtMs > records[j].CreatedAtMs
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// DeleteTodo removes one todo owned by the user.
func (s *Store) DeleteTodo(ctx context.Context, userID, todoID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.todos[todoID]
	if !ok || record.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.todos, todoID)
	return nil
}

// PutSeries inserts or replaces a series.
func (s *Store) PutSeries(ctx context.Context, record storage.SeriesRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("series id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[record.ID] = record
	return nil
}

// GetSeries loads one series owned by the user.
func (s *Store) GetSeries(ctx context.Context, userID, seriesID string) (storage.SeriesRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SeriesRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.series[seriesID]
	if !ok || record.UserID != userID {
		return storage.SeriesRecord{}, storage.ErrNotFound
	}
	return record, nil
}

// GetSeriesByID loads one series regardless of owner.
func (s *Store) GetSeriesByID(ctx context.Context, seriesID string) (storage.SeriesRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SeriesRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.series[seriesID]
	if !ok {
		return storage.SeriesRecord{}, storage.ErrNotFound
	}
	return record, nil
}

// ListSeries returns the user's series ordered by creation time.
func (s *Store) ListSeries(ctx context.Context, userID string) ([]storage.SeriesRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []storage.SeriesRecord
	for _, record := range s.series {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	sortSeries(records)
	return records, nil
}

// ListAllSeries returns every series across users.
func (s *Store) ListAllSeries(ctx context.Context) ([]storage.SeriesRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]storage.SeriesRecord, 0, len(s.series))
	for _, record := range s.series {
		records = append(records, record)
	}
	sortSeries(records)
	return records, nil
}

// DeleteSeries removes one series owned by the user along with its
// occurrences.
func (s *Store) DeleteSeries(ctx context.Context, userID, seriesID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.series[seriesID]
	if !ok || record.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.series, seriesID)
	for id, occurrence := range s.occurrences {
		if occurrence.SeriesID == seriesID {
			delete(s.occurrences, id)
		}
	}
	return nil
}

// ConvertTodoToSeries deletes the todo and creates its replacement series
// atomically.
func (s *Store) ConvertTodoToSeries(ctx context.Context, userID, todoID string, series storage.SeriesRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(series.ID) == "" {
		return fmt.Errorf("series id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[todoID]
	if !ok || todo.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.todos, todoID)
	s.series[series.ID] = series
	return nil
}

// ReplaceSeriesRule updates the series row, discards pending occurrences
// dated on or after fromDate, and resets the high-water mark to the latest
// surviving occurrence date.
func (s *Store) ReplaceSeriesRule(ctx context.Context, series storage.SeriesRecord, fromDate string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(fromDate) == "" {
		return fmt.Errorf("replacement start date is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.series[series.ID]
	if !ok || current.UserID != series.UserID {
		return storage.ErrNotFound
	}

	discarded := 0
	highWater := ""
	for id, occurrence := range s.occurrences {
		if occurrence.SeriesID != series.ID {
			continue
		}
		if occurrence.Status == "pending" && occurrence.Date >= fromDate {
			delete(s.occurrences, id)
			discarded++
			continue
		}
		if occurrence.Date > highWater {
			highWater = occurrence.Date
		}
	}

	current.Title = series.Title
	current.Description = series.Description
	current.Rule = series.Rule
	current.StartDate = series.StartDate
	current.HighWater = highWater
	current.OccurrenceCount -= discarded
	current.UpdatedAtMs = series.UpdatedAtMs
	s.series[series.ID] = current
	return nil
}

// MaterializeOccurrences inserts occurrences with insert-if-absent semantics
// and advances the series high-water mark and occurrence count.
func (s *Store) MaterializeOccurrences(ctx context.Context, seriesID string, occurrences []storage.OccurrenceRecord, highWater string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	series, ok := s.series[seriesID]
	if !ok {
		return 0, storage.ErrNotFound
	}

	taken := make(map[string]bool)
	for _, occurrence := range s.occurrences {
		if occurrence.SeriesID == seriesID {
			taken[occurrence.Date] = true
		}
	}

	inserted := 0
	for _, occurrence := range occurrences {
		if taken[occurrence.Date] {
			continue
		}
		occurrence.SeriesID = seriesID
		s.occurrences[occurrence.ID] = occurrence
		taken[occurrence.Date] = true
		inserted++
		if occurrence.UpdatedAtMs > series.UpdatedAtMs {
			series.UpdatedAtMs = occurrence.UpdatedAtMs
		}
	}
	if highWater > series.HighWater {
		series.HighWater = highWater
	}
	series.OccurrenceCount += inserted
	s.series[seriesID] = series
	return inserted, nil
}

// GetOccurrence loads one occurrence by id.
func (s *Store) GetOccurrence(ctx context.Context, occurrenceID string) (storage.OccurrenceRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OccurrenceRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.occurrences[occurrenceID]
	if !ok {
		return storage.OccurrenceRecord{}, storage.ErrNotFound
	}
	return record, nil
}

// ListOccurrences returns occurrences for the user's series dated within
// [from, to], ordered by date.
func (s *Store) ListOccurrences(ctx context.Context, userID, from, to string) ([]storage.OccurrenceRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []storage.OccurrenceRecord
	for _, record := range s.occurrences {
		series, ok := s.series[record.SeriesID]
		if !ok || series.UserID != userID {
			continue
		}
		if record.Date < from || record.Date > to {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		if records[i].SeriesID != records[j].SeriesID {
			return records[i].SeriesID < records[j].SeriesID
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// SetOccurrenceStatus updates one occurrence's status and timestamps.
func (s *Store) SetOccurrenceStatus(ctx context.Context, occurrenceID, status string, completedAtMs, updatedAtMs int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.occurrences[occurrenceID]
	if !ok {
		return storage.ErrNotFound
	}
	record.Status = status
	record.CompletedAtMs = completedAtMs
	record.UpdatedAtMs = updatedAtMs
	s.occurrences[occurrenceID] = record
	return nil
}

func sortSeries(records []storage.SeriesRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAtMs != records[j].CreatedAtMs {
			return records[i].CreatedAtMs < records[j].CreatedAtMs
		}
		return records[i].ID < records[j].ID
	})
}

var _ storage.Store = (*Store)(nil)
