// Package console parses console command flags and starts the local session.
package console

import (
	"context"
	"flag"
	"io"

	entrypoint "github.com/tidemark/tidemark/internal/platform/cmd"
	consoleservice "github.com/tidemark/tidemark/internal/services/console"
	todoapp "github.com/tidemark/tidemark/internal/services/todo/app"
	"github.com/tidemark/tidemark/internal/services/todo/storage/memory"
)

// Config holds console command configuration.
type Config struct {
	HorizonDays int `env:"TIDEMARK_HORIZON_DAYS" envDefault:"30"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.HorizonDays, "horizon-days", cfg.HorizonDays, "Occurrence look-ahead window in days")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts an in-memory console session over the given streams.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	service := todoapp.New(memory.New(), nil, nil, cfg.HorizonDays)
	return consoleservice.New(service, in, out).Run(ctx)
}
