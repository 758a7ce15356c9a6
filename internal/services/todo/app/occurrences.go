package app

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

// OccurrenceResolution is the outcome of completing or skipping an
// occurrence. Next is the occurrence materialized to keep the window topped
// up, nil when the rule is exhausted or the next date falls past the window.
type OccurrenceResolution struct {
	Occurrence recurrence.Occurrence
	Next       *recurrence.Occurrence
}

// ListOccurrences returns the user's occurrences dated within [from, to].
func (s *Service) ListOccurrences(ctx context.Context, userID string, from, to time.Time) ([]recurrence.Occurrence, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, apperrors.New(apperrors.CodeOccurrenceRangeBad, "occurrence range is invalid")
	}

	records, err := s.store.ListOccurrences(ctx, userID, domain.FormatDate(from), domain.FormatDate(to))
	if err != nil {
		return nil, err
	}
	occurrences := make([]recurrence.Occurrence, 0, len(records))
	for _, record := range records {
		occurrence, err := occurrenceFromRecord(record)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, occurrence)
	}
	return occurrences, nil
}

// CompleteOccurrence marks one pending occurrence completed and materializes
// the next rule date to keep the pending inventory topped up.
func (s *Service) CompleteOccurrence(ctx context.Context, userID, occurrenceID string) (OccurrenceResolution, error) {
	return s.resolveOccurrence(ctx, userID, occurrenceID, recurrence.StatusCompleted)
}

// SkipOccurrence marks one pending occurrence skipped. Skipping consumes
// pending inventory the same way completion does, so the window is topped up
// here too.
func (s *Service) SkipOccurrence(ctx context.Context, userID, occurrenceID string) (OccurrenceResolution, error) {
	return s.resolveOccurrence(ctx, userID, occurrenceID, recurrence.StatusSkipped)
}

func (s *Service) resolveOccurrence(ctx context.Context, userID, occurrenceID string, status recurrence.Status) (OccurrenceResolution, error) {
	if err := s.ready(); err != nil {
		return OccurrenceResolution{}, err
	}

	record, err := s.store.GetOccurrence(ctx, occurrenceID)
	if err != nil {
		return OccurrenceResolution{}, err
	}
	series, err := s.ownedSeries(ctx, userID, record.SeriesID)
	if err != nil {
		return OccurrenceResolution{}, err
	}
	occurrence, err := occurrenceFromRecord(record)
	if err != nil {
		return OccurrenceResolution{}, err
	}

	resolved, err := occurrence.Resolve(status, s.clock)
	if err != nil {
		return OccurrenceResolution{}, err
	}
	err = s.store.SetOccurrenceStatus(ctx, resolved.ID, string(resolved.Status),
		storage.ToMillis(resolved.CompletedAt), storage.ToMillis(resolved.UpdatedAt))
	if err != nil {
		return OccurrenceResolution{}, fmt.Errorf("store occurrence status: %w", err)
	}

	resolution := OccurrenceResolution{Occurrence: resolved}
	next, ok, err := s.maintainer.AdvanceOnCompletion(ctx, series, s.horizonDays)
	if err != nil {
		return OccurrenceResolution{}, fmt.Errorf("top up occurrence window: %w", err)
	}
	if ok {
		resolution.Next = &next
	}
	return resolution, nil
}

// ownedSeries loads a series and hides its existence from non-owners.
func (s *Service) ownedSeries(ctx context.Context, userID, seriesID string) (recurrence.Series, error) {
	record, err := s.store.GetSeriesByID(ctx, seriesID)
	if err != nil {
		return recurrence.Series{}, err
	}
	if record.UserID != userID {
		return recurrence.Series{}, storage.ErrNotFound
	}
	return seriesFromRecord(record)
}
