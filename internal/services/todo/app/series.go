package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidemark/tidemark/internal/services/todo/domain"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
)

// UpdateSeriesInput captures mutable series fields; nil pointers leave the
// field unchanged. Changing the rule discards pending occurrences from today
// forward and rematerializes them under the new rule.
type UpdateSeriesInput struct {
	Title       *string
	Description *string
	Rule        *string
}

// CreateSeries validates input, persists a new recurring series, and
// materializes its initial occurrence window.
func (s *Service) CreateSeries(ctx context.Context, input recurrence.CreateSeriesInput) (recurrence.Series, error) {
	if err := s.ready(); err != nil {
		return recurrence.Series{}, err
	}

	series, err := recurrence.NewSeries(input, s.clock, s.newID)
	if err != nil {
		return recurrence.Series{}, err
	}
	if err := s.store.PutSeries(ctx, seriesToRecord(series)); err != nil {
		return recurrence.Series{}, fmt.Errorf("store series: %w", err)
	}
	if _, err := s.maintainer.Refill(ctx, series, s.horizonDays); err != nil {
		return recurrence.Series{}, fmt.Errorf("materialize initial window: %w", err)
	}
	return s.seriesByID(ctx, series.ID)
}

// GetSeries loads one series owned by the user.
func (s *Service) GetSeries(ctx context.Context, userID, seriesID string) (recurrence.Series, error) {
	if err := s.ready(); err != nil {
		return recurrence.Series{}, err
	}

	record, err := s.store.GetSeries(ctx, userID, seriesID)
	if err != nil {
		return recurrence.Series{}, err
	}
	return seriesFromRecord(record)
}

// ListSeries returns the user's series.
func (s *Service) ListSeries(ctx context.Context, userID string) ([]recurrence.Series, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	records, err := s.store.ListSeries(ctx, userID)
	if err != nil {
		return nil, err
	}
	series := make([]recurrence.Series, 0, len(records))
	for _, record := range records {
		one, err := seriesFromRecord(record)
		if err != nil {
			return nil, err
		}
		series = append(series, one)
	}
	return series, nil
}

// ListAllSeries returns every series across users, for the refill sweep.
func (s *Service) ListAllSeries(ctx context.Context) ([]recurrence.Series, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	records, err := s.store.ListAllSeries(ctx)
	if err != nil {
		return nil, err
	}
	series := make([]recurrence.Series, 0, len(records))
	for _, record := range records {
		one, err := seriesFromRecord(record)
		if err != nil {
			return nil, err
		}
		series = append(series, one)
	}
	return series, nil
}

// DeleteSeries removes one series owned by the user along with all of its
// occurrences.
func (s *Service) DeleteSeries(ctx context.Context, userID, seriesID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.DeleteSeries(ctx, userID, seriesID)
}

// UpdateSeries applies a partial update to one series owned by the user.
// When the rule changes, pending occurrences dated today or later are
// discarded and the window is rematerialized under the new rule; resolved
// history is kept.
func (s *Service) UpdateSeries(ctx context.Context, userID, seriesID string, input UpdateSeriesInput) (recurrence.Series, error) {
	if err := s.ready(); err != nil {
		return recurrence.Series{}, err
	}

	record, err := s.store.GetSeries(ctx, userID, seriesID)
	if err != nil {
		return recurrence.Series{}, err
	}
	series, err := seriesFromRecord(record)
	if err != nil {
		return recurrence.Series{}, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return recurrence.Series{}, recurrence.ErrEmptyTitle
		}
		series.Title = title
	}
	if input.Description != nil {
		series.Description = strings.TrimSpace(*input.Description)
	}
	series.UpdatedAt = s.clock().UTC()

	ruleChanged := false
	if input.Rule != nil {
		rule, err := recurrence.ParseRule(*input.Rule, series.StartDate)
		if err != nil {
			return recurrence.Series{}, err
		}
		if rule.Raw() != series.Rule {
			series.Rule = rule.Raw()
			ruleChanged = true
		}
	}

	if !ruleChanged {
		if err := s.store.PutSeries(ctx, seriesToRecord(series)); err != nil {
			return recurrence.Series{}, fmt.Errorf("store series update: %w", err)
		}
		return series, nil
	}

	today := domain.FormatDate(s.clock())
	if err := s.store.ReplaceSeriesRule(ctx, seriesToRecord(series), today); err != nil {
		return recurrence.Series{}, fmt.Errorf("replace series rule: %w", err)
	}
	refreshed, err := s.seriesByID(ctx, seriesID)
	if err != nil {
		return recurrence.Series{}, err
	}
	if _, err := s.maintainer.Refill(ctx, refreshed, s.horizonDays); err != nil {
		return recurrence.Series{}, fmt.Errorf("rematerialize window: %w", err)
	}
	return s.seriesByID(ctx, seriesID)
}

// ConvertTodoToSeries promotes a one-off todo into a recurring series. The
// todo is deleted and the series inherits its title and description; the
// start date defaults to the todo's due date, then today.
func (s *Service) ConvertTodoToSeries(ctx context.Context, userID, todoID, rule string, startDate time.Time) (recurrence.Series, error) {
	if err := s.ready(); err != nil {
		return recurrence.Series{}, err
	}

	record, err := s.store.GetTodo(ctx, userID, todoID)
	if err != nil {
		return recurrence.Series{}, err
	}
	todo, err := todoFromRecord(record)
	if err != nil {
		return recurrence.Series{}, err
	}

	if startDate.IsZero() {
		startDate = todo.DueDate
	}
	if startDate.IsZero() {
		startDate = s.clock()
	}

	series, err := recurrence.NewSeries(recurrence.CreateSeriesInput{
		UserID:      userID,
		Title:       todo.Title,
		Description: todo.Description,
		Rule:        rule,
		StartDate:   startDate,
	}, s.clock, s.newID)
	if err != nil {
		return recurrence.Series{}, err
	}

	if err := s.store.ConvertTodoToSeries(ctx, userID, todoID, seriesToRecord(series)); err != nil {
		return recurrence.Series{}, fmt.Errorf("convert todo to series: %w", err)
	}
	if _, err := s.maintainer.Refill(ctx, series, s.horizonDays); err != nil {
		return recurrence.Series{}, fmt.Errorf("materialize initial window: %w", err)
	}
	return s.seriesByID(ctx, series.ID)
}

// RefillSeries tops up one series' occurrence window and returns the number
// of occurrences inserted.
func (s *Service) RefillSeries(ctx context.Context, series recurrence.Series) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.maintainer.Refill(ctx, series, s.horizonDays)
}

func (s *Service) seriesByID(ctx context.Context, seriesID string) (recurrence.Series, error) {
	record, err := s.store.GetSeriesByID(ctx, seriesID)
	if err != nil {
		return recurrence.Series{}, err
	}
	return seriesFromRecord(record)
}
