package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidemark/tidemark/internal/services/todo/app"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
	"github.com/tidemark/tidemark/internal/services/todo/storage/memory"
)

func newTestService() *app.Service {
	now := func() time.Time {
		return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	n := 0
	ids := func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
	return app.New(memory.New(), now, ids, recurrence.DefaultHorizonDays)
}

// connect spins up the MCP server over an in-memory transport and returns a
// connected client session.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() {
		_ = server.mcpServer.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer connectCancel()
	session, err := client.Connect(connectCtx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() {
		_ = session.Close()
	})
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, arguments any) map[string]any {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if result.IsError {
		t.Fatalf("call %s reported tool error: %+v", name, result.Content)
	}

	payload, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal %s result: %v", name, err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode %s result: %v", name, err)
	}
	return decoded
}

func TestNewServerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Config{UserID: "user-1"}, nil); err == nil {
		t.Fatal("NewServer without service should fail")
	}
	if _, err := NewServer(Config{}, newTestService()); err == nil {
		t.Fatal("NewServer without user id should fail")
	}
}

func TestTaskToolsRoundTrip(t *testing.T) {
	t.Parallel()

	server, err := NewServer(Config{UserID: "user-1"}, newTestService())
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	session := connect(t, server)

	added := callTool(t, session, "task_add", map[string]any{
		"title":    "buy milk",
		"due_date": "2026-01-05",
	})
	task, ok := added["task"].(map[string]any)
	if !ok {
		t.Fatalf("task_add result = %+v", added)
	}
	taskID, _ := task["id"].(string)
	if taskID == "" {
		t.Fatalf("task_add returned no id: %+v", task)
	}

	listed := callTool(t, session, "task_list", map[string]any{})
	tasks, ok := listed["tasks"].([]any)
	if !ok || len(tasks) != 1 {
		t.Fatalf("task_list result = %+v", listed)
	}

	completed := callTool(t, session, "task_complete", map[string]any{"id": taskID})
	task, _ = completed["task"].(map[string]any)
	if done, _ := task["completed"].(bool); !done {
		t.Fatalf("task_complete result = %+v", completed)
	}

	deleted := callTool(t, session, "task_delete", map[string]any{"id": taskID})
	if deleted["deleted"] != taskID {
		t.Fatalf("task_delete result = %+v", deleted)
	}
}

func TestSeriesAndOccurrenceTools(t *testing.T) {
	t.Parallel()

	server, err := NewServer(Config{UserID: "user-1"}, newTestService())
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	session := connect(t, server)

	created := callTool(t, session, "series_create", map[string]any{
		"title":      "daily standup",
		"rule":       "FREQ=DAILY",
		"start_date": "2026-01-01",
	})
	series, ok := created["series"].(map[string]any)
	if !ok {
		t.Fatalf("series_create result = %+v", created)
	}
	if count, _ := series["occurrence_count"].(float64); count != 30 {
		t.Fatalf("occurrence_count = %v, want 30", series["occurrence_count"])
	}

	agenda := callTool(t, session, "agenda_list", map[string]any{
		"from": "2026-01-01",
		"to":   "2026-01-01",
	})
	items, ok := agenda["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("agenda_list result = %+v", agenda)
	}
	item, _ := items[0].(map[string]any)
	occurrenceID, _ := item["id"].(string)

	resolved := callTool(t, session, "occurrence_complete", map[string]any{"id": occurrenceID})
	occurrence, _ := resolved["occurrence"].(map[string]any)
	if status, _ := occurrence["status"].(string); status != "completed" {
		t.Fatalf("occurrence_complete result = %+v", resolved)
	}
	next, ok := resolved["next"].(map[string]any)
	if !ok {
		t.Fatalf("occurrence_complete should report the window top-up, got %+v", resolved)
	}
	if date, _ := next["date"].(string); date != "2026-01-31" {
		t.Fatalf("topped-up date = %q, want 2026-01-31", date)
	}
}
