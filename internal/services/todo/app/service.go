// Package app orchestrates todo, series, and occurrence operations over the
// storage layer, keeping the recurrence window maintained as a side effect of
// user actions.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tidemark/tidemark/internal/platform/id"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

// Service exposes the todo application operations.
type Service struct {
	store       storage.Store
	clock       func() time.Time
	newID       func() (string, error)
	horizonDays int
	maintainer  *recurrence.Maintainer
}

// New creates the application service. Nil clock and id generator fall back
// to time.Now and the platform id generator; a non-positive horizon uses the
// default.
func New(store storage.Store, clock func() time.Time, idGenerator func() (string, error), horizonDays int) *Service {
	if clock == nil {
		clock = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if horizonDays <= 0 {
		horizonDays = recurrence.DefaultHorizonDays
	}
	return &Service{
		store:       store,
		clock:       clock,
		newID:       idGenerator,
		horizonDays: horizonDays,
		maintainer:  recurrence.NewMaintainer(materializeAdapter{store: store}, clock, idGenerator),
	}
}

// HorizonDays returns the configured look-ahead window size.
func (s *Service) HorizonDays() int {
	if s == nil {
		return recurrence.DefaultHorizonDays
	}
	return s.horizonDays
}

func (s *Service) ready() error {
	if s == nil || s.store == nil {
		return fmt.Errorf("service storage is not configured")
	}
	return nil
}

// materializeAdapter bridges the recurrence maintainer to the storage layer.
type materializeAdapter struct {
	store storage.OccurrenceStore
}

func (a materializeAdapter) MaterializeOccurrences(ctx context.Context, seriesID string, occurrences []recurrence.Occurrence, highWater time.Time) (int, error) {
	records := make([]storage.OccurrenceRecord, 0, len(occurrences))
	for _, occurrence := range occurrences {
		records = append(records, occurrenceToRecord(occurrence))
	}
	return a.store.MaterializeOccurrences(ctx, seriesID, records, domain.FormatDate(highWater))
}
