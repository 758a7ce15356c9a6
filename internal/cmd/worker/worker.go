// Package worker parses worker command flags and launches the refill runtime.
package worker

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/tidemark/tidemark/internal/platform/cmd"
	workerapp "github.com/tidemark/tidemark/internal/services/worker/app"
)

// Config holds worker command configuration.
type Config struct {
	TodoDBPath   string        `env:"TIDEMARK_WORKER_TODO_DB_PATH" envDefault:"data/todos.db"`
	WorkerDBPath string        `env:"TIDEMARK_WORKER_DB_PATH" envDefault:"data/worker.db"`
	Consumer     string        `env:"TIDEMARK_WORKER_CONSUMER" envDefault:"refill-worker"`
	Schedule     string        `env:"TIDEMARK_WORKER_SCHEDULE" envDefault:"0 3 * * *"`
	HorizonDays  int           `env:"TIDEMARK_HORIZON_DAYS" envDefault:"30"`
	SweepTimeout time.Duration `env:"TIDEMARK_WORKER_SWEEP_TIMEOUT" envDefault:"5m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.TodoDBPath, "todo-db-path", cfg.TodoDBPath, "The todo SQLite database path")
	fs.StringVar(&cfg.WorkerDBPath, "db-path", cfg.WorkerDBPath, "The worker SQLite database path")
	fs.StringVar(&cfg.Consumer, "consumer", cfg.Consumer, "Sweep consumer name recorded with outcomes")
	fs.StringVar(&cfg.Schedule, "schedule", cfg.Schedule, "Cron schedule for refill sweeps")
	fs.IntVar(&cfg.HorizonDays, "horizon-days", cfg.HorizonDays, "Occurrence look-ahead window in days")
	fs.DurationVar(&cfg.SweepTimeout, "sweep-timeout", cfg.SweepTimeout, "Upper bound for one refill sweep")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the worker runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWorker, func(ctx context.Context) error {
		return workerapp.Run(ctx, workerapp.RuntimeConfig{
			TodoDBPath:   cfg.TodoDBPath,
			WorkerDBPath: cfg.WorkerDBPath,
			Consumer:     cfg.Consumer,
			Schedule:     cfg.Schedule,
			HorizonDays:  cfg.HorizonDays,
			SweepTimeout: cfg.SweepTimeout,
		})
	})
}
