// Package storage defines durable records for worker sweep outcomes.
package storage

import (
	"context"
	"time"
)

// SweepRecord is one durable refill sweep outcome.
type SweepRecord struct {
	ID                int64
	Consumer          string
	SeriesCount       int
	MaterializedCount int
	FailureCount      int
	Outcome           string
	LastError         string
	CreatedAt         time.Time
}

// SweepStore persists refill sweep records.
type SweepStore interface {
	RecordSweep(ctx context.Context, record SweepRecord) error
	ListSweeps(ctx context.Context, limit int) ([]SweepRecord, error)
}
