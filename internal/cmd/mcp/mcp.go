// Package mcp parses MCP command flags and launches the stdio tool server.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	entrypoint "github.com/tidemark/tidemark/internal/platform/cmd"
	mcpservice "github.com/tidemark/tidemark/internal/services/mcp/service"
	todoapp "github.com/tidemark/tidemark/internal/services/todo/app"
	todosqlite "github.com/tidemark/tidemark/internal/services/todo/storage/sqlite"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath      string `env:"TIDEMARK_MCP_DB_PATH" envDefault:"data/todos.db"`
	UserID      string `env:"TIDEMARK_MCP_USER_ID"`
	HorizonDays int    `env:"TIDEMARK_HORIZON_DAYS" envDefault:"30"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The todo SQLite database path")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "User whose tasks the tools operate on")
	fs.IntVar(&cfg.HorizonDays, "horizon-days", cfg.HorizonDays, "Occurrence look-ahead window in days")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP tool server over stdio.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := todosqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open todo sqlite store: %w", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				log.Printf("close todo sqlite store: %v", closeErr)
			}
		}()

		service := todoapp.New(store, nil, nil, cfg.HorizonDays)
		server, err := mcpservice.NewServer(mcpservice.Config{UserID: cfg.UserID}, service)
		if err != nil {
			return fmt.Errorf("configure mcp server: %w", err)
		}
		return server.Run(ctx)
	})
}
