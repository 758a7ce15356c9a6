// Package api hosts the JSON HTTP surface for todos, series, occurrences,
// the merged agenda, the chat assistant, and the calendar feed.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidemark/tidemark/internal/auth"
	"github.com/tidemark/tidemark/internal/platform/timeouts"
	"github.com/tidemark/tidemark/internal/services/todo/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ChatAgent answers a user's natural-language request, acting on their todos
// through tool calls.
type ChatAgent interface {
	Reply(ctx context.Context, userID, message string) (string, error)
}

// Config defines the inputs for the API server.
type Config struct {
	HTTPAddr string
}

// Server hosts the API HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

type handler struct {
	service *app.Service
	agent   ChatAgent
	feed    feedSigner
	now     func() time.Time
}

// NewServer creates the API server. The chat agent may be nil, in which case
// the chat endpoint reports unavailable.
func NewServer(config Config, service *app.Service, verifier auth.Verifier, agent ChatAgent) (*Server, error) {
	if service == nil {
		return nil, errors.New("todo service is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           otelhttp.NewHandler(NewHandler(service, verifier, agent), "api"),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return &Server{httpAddr: httpAddr, httpServer: httpServer}, nil
}

// NewHandler assembles the route handlers. It is the test-oriented
// entrypoint; NewServer wraps it with server lifecycle concerns.
func NewHandler(service *app.Service, verifier auth.Verifier, agent ChatAgent) http.Handler {
	return newHandlerWithClock(service, verifier, agent, time.Now)
}

func newHandlerWithClock(service *app.Service, verifier auth.Verifier, agent ChatAgent, now func() time.Time) http.Handler {
	h := &handler{
		service: service,
		agent:   agent,
		feed:    feedSigner{verifier: verifier},
		now:     now,
	}

	protected := http.NewServeMux()
	registerRoutes(protected, h)

	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" /healthz", h.handleHealthz)
	mux.HandleFunc(http.MethodGet+" /feed/{user}", h.handleFeed)
	mux.Handle("/api/", auth.Middleware(verifier, protected))
	return mux
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests are
// drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("api server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("api listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
