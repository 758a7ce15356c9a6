// Package domain implements the worker's occurrence refill sweep.
package domain

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
)

// RefillService exposes the todo operations the sweeper drives.
type RefillService interface {
	ListAllSeries(ctx context.Context) ([]recurrence.Series, error)
	RefillSeries(ctx context.Context, series recurrence.Series) (int, error)
}

// SweepResult summarizes one pass over every recurring series.
type SweepResult struct {
	SeriesCount       int
	MaterializedCount int
	FailureCount      int
	LastError         string
}

// Sweeper tops up the pending occurrence window for every series.
type Sweeper struct {
	service RefillService
	logf    func(format string, args ...any)
}

// NewSweeper builds a sweeper over the given todo service.
func NewSweeper(service RefillService, logf func(format string, args ...any)) *Sweeper {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Sweeper{service: service, logf: logf}
}

// Sweep refills every series once. Per-series failures are counted and
// logged without aborting the pass; the returned error covers only
// failures that prevented the sweep from running at all.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	if s == nil || s.service == nil {
		return SweepResult{}, fmt.Errorf("refill service is not configured")
	}

	allSeries, err := s.service.ListAllSeries(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list series: %w", err)
	}

	result := SweepResult{SeriesCount: len(allSeries)}
	for _, series := range allSeries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		inserted, err := s.service.RefillSeries(ctx, series)
		if err != nil {
			err = classifyRefillError(err)
			result.FailureCount++
			result.LastError = err.Error()
			s.logf("refill series %s: %v", series.ID, err)
			continue
		}
		result.MaterializedCount += inserted
	}
	return result, nil
}

// classifyRefillError marks failures that retrying cannot fix. A rule
// that no longer parses stays broken until the series is edited.
func classifyRefillError(err error) error {
	switch apperrors.CodeFor(err) {
	case apperrors.CodeSeriesRuleInvalid, apperrors.CodeSeriesRuleEmpty:
		return Permanent(err)
	}
	return err
}

// Outcome reports the canonical outcome label for a finished sweep.
func (r SweepResult) Outcome() string {
	if r.FailureCount > 0 {
		return "partial"
	}
	return "succeeded"
}

// Summary renders a short human-readable sweep description for logs.
func (r SweepResult) Summary() string {
	parts := []string{
		fmt.Sprintf("series=%d", r.SeriesCount),
		fmt.Sprintf("materialized=%d", r.MaterializedCount),
	}
	if r.FailureCount > 0 {
		parts = append(parts, fmt.Sprintf("failures=%d", r.FailureCount))
	}
	return strings.Join(parts, " ")
}
