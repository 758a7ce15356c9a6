// Package domain defines the MCP tool schemas and handlers for task
// management.
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidemark/tidemark/internal/services/todo/app"
	todo "github.com/tidemark/tidemark/internal/services/todo/domain"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
)

// TaskSummary represents one task in MCP tool output.
type TaskSummary struct {
	ID        string `json:"id" jsonschema:"task identifier"`
	Title     string `json:"title" jsonschema:"task title"`
	DueDate   string `json:"due_date,omitempty" jsonschema:"due date, YYYY-MM-DD"`
	Completed bool   `json:"completed" jsonschema:"whether the task is completed"`
}

// TaskAddInput represents the MCP tool input for creating a task.
type TaskAddInput struct {
	Title       string `json:"title" jsonschema:"task title"`
	Description string `json:"description,omitempty" jsonschema:"optional detail"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"optional due date, YYYY-MM-DD"`
}

// TaskAddResult represents the MCP tool output for creating a task.
type TaskAddResult struct {
	Task TaskSummary `json:"task" jsonschema:"the created task"`
}

// TaskAddTool defines the MCP tool schema for creating a task.
func TaskAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "task_add",
		Description: "Creates a new task",
	}
}

// TaskAddHandler creates a task for the configured user.
func TaskAddHandler(service *app.Service, userID string) mcp.ToolHandlerFor[TaskAddInput, TaskAddResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TaskAddInput) (*mcp.CallToolResult, TaskAddResult, error) {
		create := todo.CreateTodoInput{
			UserID:      userID,
			Title:       input.Title,
			Description: input.Description,
		}
		if input.DueDate != "" {
			dueDate, err := todo.ParseDate(input.DueDate)
			if err != nil {
				return nil, TaskAddResult{}, fmt.Errorf("parse due date: %w", err)
			}
			create.DueDate = dueDate
		}
		created, err := service.CreateTodo(ctx, create)
		if err != nil {
			return nil, TaskAddResult{}, fmt.Errorf("create task: %w", err)
		}
		return nil, TaskAddResult{Task: summarize(created)}, nil
	}
}

// TaskListInput represents the MCP tool input for listing tasks.
type TaskListInput struct {
	Completed *bool  `json:"completed,omitempty" jsonschema:"filter by completion state"`
	DueFrom   string `json:"due_from,omitempty" jsonschema:"earliest due date, YYYY-MM-DD"`
	DueTo     string `json:"due_to,omitempty" jsonschema:"latest due date, YYYY-MM-DD"`
}

// TaskListResult represents the MCP tool output for listing tasks.
type TaskListResult struct {
	Tasks []TaskSummary `json:"tasks" jsonschema:"matching tasks"`
}

// TaskListTool defines the MCP tool schema for listing tasks.
func TaskListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "task_list",
		Description: "Lists the user's tasks, optionally filtered",
	}
}

// TaskListHandler lists the configured user's tasks.
func TaskListHandler(service *app.Service, userID string) mcp.ToolHandlerFor[TaskListInput, TaskListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TaskListInput) (*mcp.CallToolResult, TaskListResult, error) {
		filter := todo.TodoFilter{Completed: input.Completed}
		if input.DueFrom != "" {
			from, err := todo.ParseDate(input.DueFrom)
			if err != nil {
				return nil, TaskListResult{}, fmt.Errorf("parse due_from: %w", err)
			}
			filter.DueFrom = from
		}
		if input.DueTo != "" {
			to, err := todo.ParseDate(input.DueTo)
			if err != nil {
				return nil, TaskListResult{}, fmt.Errorf("parse due_to: %w", err)
			}
			filter.DueTo = to
		}
		todos, err := service.ListTodos(ctx, userID, filter)
		if err != nil {
			return nil, TaskListResult{}, fmt.Errorf("list tasks: %w", err)
		}
		result := TaskListResult{Tasks: make([]TaskSummary, 0, len(todos))}
		for _, item := range todos {
			result.Tasks = append(result.Tasks, summarize(item))
		}
		return nil, result, nil
	}
}

// TaskCompleteInput represents the MCP tool input for completing a task.
type TaskCompleteInput struct {
	ID string `json:"id" jsonschema:"task identifier from task_list"`
}

// TaskCompleteResult represents the MCP tool output for completing a task.
type TaskCompleteResult struct {
	Task TaskSummary `json:"task" jsonschema:"the completed task"`
}

// TaskCompleteTool defines the MCP tool schema for completing a task.
func TaskCompleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "task_complete",
		Description: "Marks a task completed",
	}
}

// TaskCompleteHandler completes one of the configured user's tasks.
func TaskCompleteHandler(service *app.Service, userID string) mcp.ToolHandlerFor[TaskCompleteInput, TaskCompleteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TaskCompleteInput) (*mcp.CallToolResult, TaskCompleteResult, error) {
		completed, err := service.CompleteTodo(ctx, userID, input.ID)
		if err != nil {
			return nil, TaskCompleteResult{}, fmt.Errorf("complete task: %w", err)
		}
		return nil, TaskCompleteResult{Task: summarize(completed)}, nil
	}
}

// TaskUpdateInput represents the MCP tool input for updating a task.
type TaskUpdateInput struct {
	ID          string  `json:"id" jsonschema:"task identifier from task_list"`
	Title       *string `json:"title,omitempty" jsonschema:"new title"`
	Description *string `json:"description,omitempty" jsonschema:"new detail"`
	DueDate     *string `json:"due_date,omitempty" jsonschema:"new due date YYYY-MM-DD, empty string clears"`
}

// TaskUpdateResult represents the MCP tool output for updating a task.
type TaskUpdateResult struct {
	Task TaskSummary `json:"task" jsonschema:"the updated task"`
}

// TaskUpdateTool defines the MCP tool schema for updating a task.
func TaskUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "task_update",
		Description: "Updates a task's title, description, or due date",
	}
}

// TaskUpdateHandler updates one of the configured user's tasks.
func TaskUpdateHandler(service *app.Service, userID string) mcp.ToolHandlerFor[TaskUpdateInput, TaskUpdateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TaskUpdateInput) (*mcp.CallToolResult, TaskUpdateResult, error) {
		update := todo.UpdateTodoInput{
			Title:       input.Title,
			Description: input.Description,
		}
		if input.DueDate != nil {
			if *input.DueDate == "" {
				update.DueDate = &time.Time{}
			} else {
				dueDate, err := todo.ParseDate(*input.DueDate)
				if err != nil {
					return nil, TaskUpdateResult{}, fmt.Errorf("parse due date: %w", err)
				}
				update.DueDate = &dueDate
			}
		}
		updated, err := service.UpdateTodo(ctx, userID, input.ID, update)
		if err != nil {
			return nil, TaskUpdateResult{}, fmt.Errorf("update task: %w", err)
		}
		return nil, TaskUpdateResult{Task: summarize(updated)}, nil
	}
}

// TaskDeleteInput represents the MCP tool input for deleting a task.
type TaskDeleteInput struct {
	ID string `json:"id" jsonschema:"task identifier from task_list"`
}

// TaskDeleteResult represents the MCP tool output for deleting a task.
type TaskDeleteResult struct {
	Deleted string `json:"deleted" jsonschema:"identifier of the deleted task"`
}

// TaskDeleteTool defines the MCP tool schema for deleting a task.
func TaskDeleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "task_delete",
		Description: "Deletes a task",
	}
}

// TaskDeleteHandler deletes one of the configured user's tasks.
func TaskDeleteHandler(service *app.Service, userID string) mcp.ToolHandlerFor[TaskDeleteInput, TaskDeleteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TaskDeleteInput) (*mcp.CallToolResult, TaskDeleteResult, error) {
		if err := service.DeleteTodo(ctx, userID, input.ID); err != nil {
			return nil, TaskDeleteResult{}, fmt.Errorf("delete task: %w", err)
		}
		return nil, TaskDeleteResult{Deleted: input.ID}, nil
	}
}

func summarize(item todo.Todo) TaskSummary {
	summary := TaskSummary{
		ID:        item.ID,
		Title:     item.Title,
		Completed: item.Completed,
	}
	if !item.DueDate.IsZero() {
		summary.DueDate = todo.FormatDate(item.DueDate)
	}
	return summary
}

func summarizeSeries(series recurrence.Series) SeriesSummary {
	summary := SeriesSummary{
		ID:              series.ID,
		Title:           series.Title,
		Rule:            series.Rule,
		StartDate:       todo.FormatDate(series.StartDate),
		OccurrenceCount: series.OccurrenceCount,
	}
	if !series.HighWater.IsZero() {
		summary.HighWater = todo.FormatDate(series.HighWater)
	}
	return summary
}
