// Package server parses server command flags and launches the HTTP API.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidemark/tidemark/internal/auth"
	entrypoint "github.com/tidemark/tidemark/internal/platform/cmd"
	"github.com/tidemark/tidemark/internal/services/api"
	"github.com/tidemark/tidemark/internal/services/chat"
	todoapp "github.com/tidemark/tidemark/internal/services/todo/app"
	todosqlite "github.com/tidemark/tidemark/internal/services/todo/storage/sqlite"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr      string `env:"TIDEMARK_SERVER_HTTP_ADDR" envDefault:":8080"`
	DBPath        string `env:"TIDEMARK_SERVER_DB_PATH" envDefault:"data/todos.db"`
	HorizonDays   int    `env:"TIDEMARK_HORIZON_DAYS" envDefault:"30"`
	AuthIssuer    string `env:"TIDEMARK_AUTH_ISSUER" envDefault:"tidemark"`
	AuthAudience  string `env:"TIDEMARK_AUTH_AUDIENCE" envDefault:"tidemark-api"`
	AuthPublicKey string `env:"TIDEMARK_AUTH_PUBLIC_KEY"`
	OpenAIAPIKey  string `env:"TIDEMARK_OPENAI_API_KEY"`
	ChatModel     string `env:"TIDEMARK_CHAT_MODEL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The todo SQLite database path")
	fs.IntVar(&cfg.HorizonDays, "horizon-days", cfg.HorizonDays, "Occurrence look-ahead window in days")
	fs.StringVar(&cfg.AuthIssuer, "auth-issuer", cfg.AuthIssuer, "Expected token issuer")
	fs.StringVar(&cfg.AuthAudience, "auth-audience", cfg.AuthAudience, "Expected token audience")
	fs.StringVar(&cfg.AuthPublicKey, "auth-public-key", cfg.AuthPublicKey, "Base64 Ed25519 token verification key")
	fs.StringVar(&cfg.ChatModel, "chat-model", cfg.ChatModel, "Hosted model for the chat assistant")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the API server runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		if strings.TrimSpace(cfg.AuthPublicKey) == "" {
			return fmt.Errorf("auth public key is required")
		}
		verifier, err := auth.NewVerifier(cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthPublicKey, nil)
		if err != nil {
			return fmt.Errorf("configure token verifier: %w", err)
		}

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

		var agent api.ChatAgent
		if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
			chatAgent, err := chat.New(chat.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.ChatModel}, service)
			if err != nil {
				return fmt.Errorf("configure chat agent: %w", err)
			}
			agent = chatAgent
		} else {
			log.Printf("chat assistant disabled: no API key configured")
		}

		server, err := api.NewServer(api.Config{HTTPAddr: cfg.HTTPAddr}, service, verifier, agent)
		if err != nil {
			return fmt.Errorf("configure api server: %w", err)
		}
		return server.ListenAndServe(ctx)
	})
}
