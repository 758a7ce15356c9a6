package app

import (
	"fmt"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

func todoToRecord(todo domain.Todo) storage.TodoRecord {
	record := storage.TodoRecord{
		ID:            todo.ID,
		UserID:        todo.UserID,
		Title:         todo.Title,
		Description:   todo.Description,
		Completed:     todo.Completed,
		CompletedAtMs: storage.ToMillis(todo.CompletedAt),
		CreatedAtMs:   storage.ToMillis(todo.CreatedAt),
		UpdatedAtMs:   storage.ToMillis(todo.UpdatedAt),
	}
	if !todo.DueDate.IsZero() {
		record.DueDate = domain.FormatDate(todo.DueDate)
	}
	return record
}

func todoFromRecord(record storage.TodoRecord) (domain.Todo, error) {
	todo := domain.Todo{
		ID:          record.ID,
		UserID:      record.UserID,
		Title:       record.Title,
		Description: record.Description,
		Completed:   record.Completed,
		CompletedAt: storage.FromMillis(record.CompletedAtMs),
		CreatedAt:   storage.FromMillis(record.CreatedAtMs),
		UpdatedAt:   storage.FromMillis(record.UpdatedAtMs),
	}
	if record.DueDate != "" {
		dueDate, err := domain.ParseDate(record.DueDate)
		if err != nil {
			return domain.Todo{}, fmt.Errorf("todo %s: %w", record.ID, err)
		}
		todo.DueDate = dueDate
	}
	return todo, nil
}

func seriesToRecord(series recurrence.Series) storage.SeriesRecord {
	record := storage.SeriesRecord{
		ID:              series.ID,
		UserID:          series.UserID,
		Title:           series.Title,
		Description:     series.Description,
		Rule:            series.Rule,
		StartDate:       domain.FormatDate(series.StartDate),
		OccurrenceCount: series.OccurrenceCount,
		CreatedAtMs:     storage.ToMillis(series.CreatedAt),
		UpdatedAtMs:     storage.ToMillis(series.UpdatedAt),
	}
	if !series.HighWater.IsZero() {
		record.HighWater = domain.FormatDate(series.HighWater)
	}
	return record
}

func seriesFromRecord(record storage.SeriesRecord) (recurrence.Series, error) {
	startDate, err := domain.ParseDate(record.StartDate)
	if err != nil {
		return recurrence.Series{}, fmt.Errorf("series %s: %w", record.ID, err)
	}
	series := recurrence.Series{
		ID:              record.ID,
		UserID:          record.UserID,
		Title:           record.Title,
		Description:     record.Description,
		Rule:            record.Rule,
		StartDate:       startDate,
		OccurrenceCount: record.OccurrenceCount,
		CreatedAt:       storage.FromMillis(record.CreatedAtMs),
		UpdatedAt:       storage.FromMillis(record.UpdatedAtMs),
	}
	if record.HighWater != "" {
		highWater, err := domain.ParseDate(record.HighWater)
		if err != nil {
			return recurrence.Series{}, fmt.Errorf("series %s high water: %w", record.ID, err)
		}
		series.HighWater = highWater
	}
	return series, nil
}

func occurrenceToRecord(occurrence recurrence.Occurrence) storage.OccurrenceRecord {
	return storage.OccurrenceRecord{
		ID:            occurrence.ID,
		SeriesID:      occurrence.SeriesID,
		Date:          domain.FormatDate(occurrence.Date),
		Status:        string(occurrence.Status),
		CompletedAtMs: storage.ToMillis(occurrence.CompletedAt),
		CreatedAtMs:   storage.ToMillis(occurrence.CreatedAt),
		UpdatedAtMs:   storage.ToMillis(occurrence.UpdatedAt),
	}
}

func occurrenceFromRecord(record storage.OccurrenceRecord) (recurrence.Occurrence, error) {
	date, err := domain.ParseDate(record.Date)
	if err != nil {
		return recurrence.Occurrence{}, fmt.Errorf("occurrence %s: %w", record.ID, err)
	}
	status, err := recurrence.ParseStatus(record.Status)
	if err != nil {
		return recurrence.Occurrence{}, apperrors.Wrap(
			apperrors.CodeOccurrenceBadStatus,
			fmt.Sprintf("occurrence %s has invalid status", record.ID),
			err,
		)
	}
	return recurrence.Occurrence{
		ID:          record.ID,
		SeriesID:    record.SeriesID,
		Date:        date,
		Status:      status,
		CompletedAt: storage.FromMillis(record.CompletedAtMs),
		CreatedAt:   storage.FromMillis(record.CreatedAtMs),
		UpdatedAt:   storage.FromMillis(record.UpdatedAtMs),
	}, nil
}

func filterToRecord(filter domain.TodoFilter) storage.TodoFilter {
	record := storage.TodoFilter{Completed: filter.Completed}
	if !filter.DueFrom.IsZero() {
		record.DueFrom = domain.FormatDate(filter.DueFrom)
	}
	if !filter.DueTo.IsZero() {
		record.DueTo = domain.FormatDate(filter.DueTo)
	}
	return record
}
