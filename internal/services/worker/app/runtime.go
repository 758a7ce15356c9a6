// Package app runs the worker's scheduled occurrence refill loop.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tidemark/tidemark/internal/platform/timeouts"
	todoapp "github.com/tidemark/tidemark/internal/services/todo/app"
	todosqlite "github.com/tidemark/tidemark/internal/services/todo/storage/sqlite"
	workerdomain "github.com/tidemark/tidemark/internal/services/worker/domain"
	workerstorage "github.com/tidemark/tidemark/internal/services/worker/storage"
	workersqlite "github.com/tidemark/tidemark/internal/services/worker/storage/sqlite"
)

const (
	defaultConsumer = "refill-worker"
	defaultSchedule = "0 3 * * *"
	defaultTodoDB   = "data/todos.db"
	defaultWorkerDB = "data/worker.db"
)

// Config controls the sweep loop behavior.
type Config struct {
	Consumer     string
	Schedule     string
	SweepTimeout time.Duration
}

func (c Config) normalized() Config {
	if strings.TrimSpace(c.Consumer) == "" {
		c.Consumer = defaultConsumer
	}
	if strings.TrimSpace(c.Schedule) == "" {
		c.Schedule = defaultSchedule
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = timeouts.RefillSweep
	}
	return c
}

// SweepRecorder persists the outcome of one finished sweep.
type SweepRecorder interface {
	RecordSweep(ctx context.Context, result workerdomain.SweepResult, sweepErr error) error
}

// Runner drives refill sweeps on a cron schedule.
type Runner struct {
	sweeper  *workerdomain.Sweeper
	recorder SweepRecorder
	cfg      Config
	logf     func(format string, args ...any)
}

// New builds a runner over the given sweeper and recorder.
func New(sweeper *workerdomain.Sweeper, recorder SweepRecorder, cfg Config, logf func(format string, args ...any)) *Runner {
	if logf == nil {
		logf = log.Printf
	}
	return &Runner{
		sweeper:  sweeper,
		recorder: recorder,
		cfg:      cfg.normalized(),
		logf:     logf,
	}
}

// RunOnce performs a single bounded sweep and records its outcome.
func (r *Runner) RunOnce(ctx context.Context) (workerdomain.SweepResult, error) {
	if r == nil || r.sweeper == nil {
		return workerdomain.SweepResult{}, fmt.Errorf("sweeper is not configured")
	}

	sweepCtx, cancel := context.WithTimeout(ctx, r.cfg.SweepTimeout)
	defer cancel()

	result, err := r.sweeper.Sweep(sweepCtx)
	if err != nil {
		r.logf("refill sweep failed: %v", err)
	} else {
		r.logf("refill sweep finished: %s", result.Summary())
	}

	if r.recorder != nil {
		if recordErr := r.recorder.RecordSweep(ctx, result, err); recordErr != nil {
			r.logf("record sweep outcome: %v", recordErr)
		}
	}
	return result, err
}

// Run sweeps once at startup, then on the configured cron schedule
// until ctx is canceled. Overlapping sweeps only redo idempotent work.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.sweeper == nil {
		return fmt.Errorf("sweeper is not configured")
	}

	if _, err := r.RunOnce(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(r.cfg.Schedule, func() {
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule refill sweep %q: %w", r.cfg.Schedule, err)
	}

	scheduler.Start()
	r.logf("worker sweeping on schedule %q", r.cfg.Schedule)

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

// RuntimeConfig controls worker startup and dependencies.
type RuntimeConfig struct {
	TodoDBPath   string
	WorkerDBPath string
	Consumer     string
	Schedule     string
	HorizonDays  int
	SweepTimeout time.Duration
}

// Run starts worker runtime dependencies and the sweep loop.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.TodoDBPath) == "" {
		cfg.TodoDBPath = defaultTodoDB
	}
	if strings.TrimSpace(cfg.WorkerDBPath) == "" {
		cfg.WorkerDBPath = defaultWorkerDB
	}

	for _, path := range []string{cfg.TodoDBPath, cfg.WorkerDBPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create storage dir: %w", err)
			}
		}
	}

	todoStore, err := todosqlite.Open(cfg.TodoDBPath)
	if err != nil {
		return fmt.Errorf("open todo sqlite store: %w", err)
	}
	defer func() {
		if closeErr := todoStore.Close(); closeErr != nil {
			log.Printf("close todo sqlite store: %v", closeErr)
		}
	}()

	workerStore, err := workersqlite.Open(cfg.WorkerDBPath)
	if err != nil {
		return fmt.Errorf("open worker sqlite store: %w", err)
	}
	defer func() {
		if closeErr := workerStore.Close(); closeErr != nil {
			log.Printf("close worker sqlite store: %v", closeErr)
		}
	}()

	service := todoapp.New(todoStore, nil, nil, cfg.HorizonDays)
	sweeper := workerdomain.NewSweeper(service, log.Printf)
	loopConfig := Config{
		Consumer:     cfg.Consumer,
		Schedule:     cfg.Schedule,
		SweepTimeout: cfg.SweepTimeout,
	}
	normalized := loopConfig.normalized()
	runner := New(sweeper, newSweepStoreRecorder(workerStore, normalized.Consumer), normalized, log.Printf)

	return runner.Run(ctx)
}

type sweepStoreRecorder struct {
	store    workerstorage.SweepStore
	consumer string
}

func newSweepStoreRecorder(store workerstorage.SweepStore, consumer string) *sweepStoreRecorder {
	normalizedConsumer := strings.TrimSpace(consumer)
	if normalizedConsumer == "" {
		normalizedConsumer = defaultConsumer
	}
	return &sweepStoreRecorder{store: store, consumer: normalizedConsumer}
}

func (r *sweepStoreRecorder) RecordSweep(ctx context.Context, result workerdomain.SweepResult, sweepErr error) error {
	if r == nil || r.store == nil {
		return nil
	}
	record := workerstorage.SweepRecord{
		Consumer:          r.consumer,
		SeriesCount:       result.SeriesCount,
		MaterializedCount: result.MaterializedCount,
		FailureCount:      result.FailureCount,
		Outcome:           result.Outcome(),
		LastError:         result.LastError,
		CreatedAt:         time.Now().UTC(),
	}
	if sweepErr != nil {
		record.Outcome = "failed"
		record.LastError = sweepErr.Error()
	}
	return r.store.RecordSweep(ctx, record)
}
