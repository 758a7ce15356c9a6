// Package service assembles the MCP server exposing task management tools
// over stdio.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidemark/tidemark/internal/services/mcp/domain"
	"github.com/tidemark/tidemark/internal/services/todo/app"
)

const (
	serverName    = "tidemark"
	serverVersion = "1.0.0"
)

// Config defines the inputs for the MCP server.
type Config struct {
	// UserID scopes every tool call; the stdio transport carries no
	// per-request identity.
	UserID string
}

// Server hosts the MCP stdio server.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer creates the MCP server with all task tools registered.
func NewServer(cfg Config, service *app.Service) (*Server, error) {
	if service == nil {
		return nil, errors.New("todo service is required")
	}
	userID := strings.TrimSpace(cfg.UserID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerTools(mcpServer, service, userID)
	return &Server{mcpServer: mcpServer}, nil
}

func registerTools(server *mcp.Server, service *app.Service, userID string) {
	mcp.AddTool(server, domain.TaskAddTool(), domain.TaskAddHandler(service, userID))
	mcp.AddTool(server, domain.TaskListTool(), domain.TaskListHandler(service, userID))
	mcp.AddTool(server, domain.TaskCompleteTool(), domain.TaskCompleteHandler(service, userID))
	mcp.AddTool(server, domain.TaskUpdateTool(), domain.TaskUpdateHandler(service, userID))
	mcp.AddTool(server, domain.TaskDeleteTool(), domain.TaskDeleteHandler(service, userID))
	mcp.AddTool(server, domain.SeriesCreateTool(), domain.SeriesCreateHandler(service, userID))
	mcp.AddTool(server, domain.OccurrenceCompleteTool(), domain.OccurrenceCompleteHandler(service, userID))
	mcp.AddTool(server, domain.AgendaListTool(), domain.AgendaListHandler(service, userID))
}

// Run serves MCP over stdio until the context ends.
func (s *Server) Run(ctx context.Context) error {
	if s == nil || s.mcpServer == nil {
		return errors.New("mcp server is not configured")
	}
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}
