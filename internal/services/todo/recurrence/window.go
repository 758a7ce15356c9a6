package recurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/tidemark/tidemark/internal/platform/id"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

// DefaultHorizonDays is the default look-ahead window size.
const DefaultHorizonDays = 30

// defaultMaxPerRefill caps one refill so a runaway rule cannot flood storage.
const defaultMaxPerRefill = 1000

// MaterializeStore persists newly computed occurrences for a series.
type MaterializeStore interface {
	// MaterializeOccurrences inserts the given pending occurrences with
	// insert-if-absent semantics and advances the series high-water mark to
	// highWater, atomically. It returns the number of rows actually inserted;
	// rows lost to the (series, date) uniqueness constraint are silent no-ops.
	MaterializeOccurrences(ctx context.Context, seriesID string, occurrences []Occurrence, highWater time.Time) (int, error)
}

// Maintainer keeps the bounded look-ahead window of occurrences filled for
// recurring series. It is safely re-entrant: overlapping invocations only
// redo idempotent work.
type Maintainer struct {
	store        MaterializeStore
	clock        func() time.Time
	newID        func() (string, error)
	maxPerRefill int
}

// NewMaintainer creates a window maintainer. Nil clock and id generator fall
// back to time.Now and the platform id generator.
func NewMaintainer(store MaterializeStore, clock func() time.Time, idGenerator func() (string, error)) *Maintainer {
	if clock == nil {
		clock = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return &Maintainer{
		store:        store,
		clock:        clock,
		newID:        idGenerator,
		maxPerRefill: defaultMaxPerRefill,
	}
}

// IsWithinWindow reports whether date falls inside the materialization window
// ending horizonDays after today.
func IsWithinWindow(date, today time.Time, horizonDays int) bool {
	edge := domain.DateOf(today).AddDate(0, 0, horizonDays)
	return !domain.DateOf(date).After(edge)
}

// Refill materializes rule dates after the series high-water mark and before
// today + horizonDays, and advances the mark to the last materialized date.
// Re-running with no calendar advance inserts nothing: the computed range is
// empty once the mark reaches the window edge, and any race on the same
// series is absorbed by the storage uniqueness constraint. Dates the rule
// yields in the past are still materialized, so a missed sweep leaves no gap.
func (m *Maintainer) Refill(ctx context.Context, series Series, horizonDays int) (int, error) {
	if m == nil || m.store == nil {
		return 0, fmt.Errorf("maintainer store is not configured")
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	rule, err := ParseRule(series.Rule, series.StartDate)
	if err != nil {
		return 0, err
	}

	today := domain.DateOf(m.clock())
	edge := today.AddDate(0, 0, horizonDays)

	var candidates []time.Time
	if series.HighWater.IsZero() {
		candidates = rule.DatesBetween(series.StartDate, edge, true)
	} else {
		candidates = rule.DatesBetween(series.HighWater, edge, false)
	}

	// The window edge itself belongs to the next refill.
	dates := candidates[:0]
	for _, d := range candidates {
		if d.Before(edge) {
			dates = append(dates, d)
		}
	}
	if len(dates) > m.maxPerRefill {
		dates = dates[:m.maxPerRefill]
	}
	if len(dates) == 0 {
		return 0, nil
	}

	occurrences, err := m.pendingOccurrences(series.ID, dates)
	if err != nil {
		return 0, err
	}
	highWater := dates[len(dates)-1]
	inserted, err := m.store.MaterializeOccurrences(ctx, series.ID, occurrences, highWater)
	if err != nil {
		return 0, fmt.Errorf("materialize occurrences: %w", err)
	}
	return inserted, nil
}

// AdvanceOnCompletion materializes the next rule date beyond the series
// high-water mark after an occurrence resolves, keeping the pending inventory
// topped up between scheduled refills. It returns false when the rule is
// exhausted (series end reached) or the next date falls outside the window.
func (m *Maintainer) AdvanceOnCompletion(ctx context.Context, series Series, horizonDays int) (Occurrence, bool, error) {
	if m == nil || m.store == nil {
		return Occurrence{}, false, fmt.Errorf("maintainer store is not configured")
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	rule, err := ParseRule(series.Rule, series.StartDate)
	if err != nil {
		return Occurrence{}, false, err
	}

	var next time.Time
	var ok bool
	if series.HighWater.IsZero() {
		next, ok = rule.NextAfter(series.StartDate, true)
	} else {
		next, ok = rule.NextAfter(series.HighWater, false)
	}
	if !ok {
		return Occurrence{}, false, nil
	}

	today := domain.DateOf(m.clock())
	if !IsWithinWindow(next, today, horizonDays) {
		return Occurrence{}, false, nil
	}

	occurrences, err := m.pendingOccurrences(series.ID, []time.Time{next})
	if err != nil {
		return Occurrence{}, false, err
	}
	if _, err := m.store.MaterializeOccurrences(ctx, series.ID, occurrences, next); err != nil {
		return Occurrence{}, false, fmt.Errorf("materialize next occurrence: %w", err)
	}
	return occurrences[0], true, nil
}

func (m *Maintainer) pendingOccurrences(seriesID string, dates []time.Time) ([]Occurrence, error) {
	createdAt := m.clock().UTC()
	occurrences := make([]Occurrence, 0, len(dates))
	for _, date := range dates {
		occurrenceID, err := m.newID()
		if err != nil {
			return nil, fmt.Errorf("generate occurrence id: %w", err)
		}
		occurrences = append(occurrences, Occurrence{
			ID:        occurrenceID,
			SeriesID:  seriesID,
			Date:      date,
			Status:    StatusPending,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
	}
	return occurrences, nil
}
