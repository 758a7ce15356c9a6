package app

import (
	"context"
	"sort"
	"time"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

// AgendaItem kinds.
const (
	AgendaKindTodo       = "todo"
	AgendaKindOccurrence = "occurrence"
)

// AgendaItem is one dated entry in the merged agenda: either a one-off todo
// with a due date or a materialized series occurrence.
type AgendaItem struct {
	Kind        string
	ID          string
	SeriesID    string
	Title       string
	Description string
	Date        time.Time
	Status      string
}

// Agenda returns the user's dated items within [from, to]: todos due in the
// range merged with series occurrences, ordered by date.
func (s *Service) Agenda(ctx context.Context, userID string, from, to time.Time) ([]AgendaItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, apperrors.New(apperrors.CodeOccurrenceRangeBad, "agenda range is invalid")
	}

	todos, err := s.ListTodos(ctx, userID, domain.TodoFilter{DueFrom: from, DueTo: to})
	if err != nil {
		return nil, err
	}
	occurrences, err := s.ListOccurrences(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	series, err := s.ListSeries(ctx, userID)
	if err != nil {
		return nil, err
	}
	seriesTitles := make(map[string]string, len(series))
	seriesDescriptions := make(map[string]string, len(series))
	for _, one := range series {
		seriesTitles[one.ID] = one.Title
		seriesDescriptions[one.ID] = one.Description
	}

	items := make([]AgendaItem, 0, len(todos)+len(occurrences))
	for _, todo := range todos {
		status := "open"
		if todo.Completed {
			status = "completed"
		}
		items = append(items, AgendaItem{
			Kind:        AgendaKindTodo,
			ID:          todo.ID,
			Title:       todo.Title,
			Description: todo.Description,
			Date:        todo.DueDate,
			Status:      status,
		})
	}
	for _, occurrence := range occurrences {
		items = append(items, AgendaItem{
			Kind:        AgendaKindOccurrence,
			ID:          occurrence.ID,
			SeriesID:    occurrence.SeriesID,
			Title:       seriesTitles[occurrence.SeriesID],
			Description: seriesDescriptions[occurrence.SeriesID],
			Date:        occurrence.Date,
			Status:      string(occurrence.Status),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
