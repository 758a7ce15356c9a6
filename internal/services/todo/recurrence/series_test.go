package recurrence

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDs(prefix string) func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

func TestNewSeries(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	series, err := NewSeries(CreateSeriesInput{
		UserID:      "user-1",
		Title:       " water plants ",
		Description: " balcony only ",
		Rule:        "RRULE:FREQ=DAILY",
		StartDate:   time.Date(2026, 1, 1, 14, 30, 0, 0, time.UTC),
	}, fixedClock(now), sequentialIDs("series"))
	if err != nil {
		t.Fatalf("new series: %v", err)
	}

	if series.Title != "water plants" || series.Description != "balcony only" {
		t.Fatalf("unexpected normalization: %+v", series)
	}
	if series.Rule != "FREQ=DAILY" {
		t.Fatalf("rule = %q, want canonical form without prefix", series.Rule)
	}
	if !series.StartDate.Equal(date(2026, 1, 1)) {
		t.Fatalf("start date should truncate to calendar date, got %v", series.StartDate)
	}
	if !series.HighWater.IsZero() {
		t.Fatalf("new series should have no high-water mark, got %v", series.HighWater)
	}
	if series.OccurrenceCount != 0 {
		t.Fatalf("occurrence count = %d, want 0", series.OccurrenceCount)
	}
}

func TestNewSeriesValidation(t *testing.T) {
	t.Parallel()

	base := CreateSeriesInput{
		UserID:    "user-1",
		Title:     "title",
		Rule:      "FREQ=DAILY",
		StartDate: date(2026, 1, 1),
	}

	missingUser := base
	missingUser.UserID = ""
	if _, err := NewSeries(missingUser, nil, nil); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}

	missingTitle := base
	missingTitle.Title = "  "
	if _, err := NewSeries(missingTitle, nil, nil); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}

	missingStart := base
	missingStart.StartDate = time.Time{}
	if _, err := NewSeries(missingStart, nil, nil); !errors.Is(err, ErrStartDateRequired) {
		t.Fatalf("expected ErrStartDateRequired, got %v", err)
	}

	badRule := base
	badRule.Rule = "FREQ=NEVER"
	if _, err := NewSeries(badRule, nil, nil); err == nil {
		t.Fatal("expected error for invalid rule")
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"pending", "completed", "skipped"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Fatalf("parse status %q: %v", valid, err)
		}
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOccurrenceResolve(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	occ := Occurrence{ID: "occ-1", SeriesID: "series-1", Date: date(2026, 1, 2), Status: StatusPending}

	completed, err := occ.Resolve(StatusCompleted, fixedClock(now))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if completed.Status != StatusCompleted || !completed.CompletedAt.Equal(now) {
		t.Fatalf("unexpected resolved occurrence: %+v", completed)
	}

	if _, err := completed.Resolve(StatusSkipped, fixedClock(now)); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}

	if _, err := occ.Resolve(StatusPending, fixedClock(now)); err == nil {
		t.Fatal("expected error resolving to pending")
	}
}
