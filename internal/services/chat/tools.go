package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

// Tool names exposed to the model.
const (
	toolAddTask      = "add_task"
	toolListTasks    = "list_tasks"
	toolCompleteTask = "complete_task"
	toolUpdateTask   = "update_task"
	toolDeleteTask   = "delete_task"
)

func toolDefinitions() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        toolAddTask,
			Description: openai.String("Create a new task for the user."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string", "description": "Short task title."},
					"description": map[string]any{"type": "string", "description": "Optional longer detail."},
					"due_date":    map[string]any{"type": "string", "description": "Optional due date, YYYY-MM-DD."},
				},
				"required": []string{"title"},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        toolListTasks,
			Description: openai.String("List the user's tasks, optionally filtered."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"completed": map[string]any{"type": "boolean", "description": "Filter by completion state."},
					"due_from":  map[string]any{"type": "string", "description": "Earliest due date, YYYY-MM-DD."},
					"due_to":    map[string]any{"type": "string", "description": "Latest due date, YYYY-MM-DD."},
				},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        toolCompleteTask,
			Description: openai.String("Mark a task completed by id."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string", "description": "Task id from list_tasks."},
				},
				"required": []string{"id"},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        toolUpdateTask,
			Description: openai.String("Update a task's title, description, or due date."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"id":          map[string]any{"type": "string", "description": "Task id from list_tasks."},
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"due_date":    map[string]any{"type": "string", "description": "YYYY-MM-DD, empty string clears it."},
				},
				"required": []string{"id"},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        toolDeleteTask,
			Description: openai.String("Delete a task by id."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string", "description": "Task id from list_tasks."},
				},
				"required": []string{"id"},
			},
		}),
	}
}

type addTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

type listTasksArgs struct {
	Completed *bool  `json:"completed"`
	DueFrom   string `json:"due_from"`
	DueTo     string `json:"due_to"`
}

type taskIDArgs struct {
	ID string `json:"id"`
}

type updateTaskArgs struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
}

type taskSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DueDate   string `json:"due_date,omitempty"`
	Completed bool   `json:"completed"`
}

// dispatch runs one tool call and renders its outcome as a JSON string for
// the model. Failures become tool results rather than request errors so the
// model can explain them to the user.
func (a *Agent) dispatch(ctx context.Context, userID, name, arguments string) string {
	switch name {
	case toolAddTask:
		return a.runAddTask(ctx, userID, arguments)
	case toolListTasks:
		return a.runListTasks(ctx, userID, arguments)
	case toolCompleteTask:
		return a.runCompleteTask(ctx, userID, arguments)
	case toolUpdateTask:
		return a.runUpdateTask(ctx, userID, arguments)
	case toolDeleteTask:
		return a.runDeleteTask(ctx, userID, arguments)
	default:
		return toolError(fmt.Errorf("unknown tool %q", name))
	}
}

func (a *Agent) runAddTask(ctx context.Context, userID, arguments string) string {
	var args addTaskArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return toolError(fmt.Errorf("parse arguments: %w", err))
	}
	input := domain.CreateTodoInput{
		UserID:      userID,
		Title:       args.Title,
		Description: args.Description,
	}
	if args.DueDate != "" {
		dueDate, err := domain.ParseDate(args.DueDate)
		if err != nil {
			return toolError(err)
		}
		input.DueDate = dueDate
	}
	todo, err := a.service.CreateTodo(ctx, input)
	if err != nil {
		return toolError(err)
	}
	return toolResult(summarize(todo.ID, todo.Title, todo.DueDate, todo.Completed))
}

func (a *Agent) runListTasks(ctx context.Context, userID, arguments string) string {
	var args listTasksArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return toolError(fmt.Errorf("parse arguments: %w", err))
	}
	filter := domain.TodoFilter{Completed: args.Completed}
	if args.DueFrom != "" {
		from, err := domain.ParseDate(args.DueFrom)
		if err != nil {
			return toolError(err)
		}
		filter.DueFrom = from
	}
	if args.DueTo != "" {
		to, err := domain.ParseDate(args.DueTo)
		if err != nil {
			return toolError(err)
		}
		filter.DueTo = to
	}
	todos, err := a.service.ListTodos(ctx, userID, filter)
	if err != nil {
		return toolError(err)
	}
	summaries := make([]taskSummary, 0, len(todos))
	for _, todo := range todos {
		summaries = append(summaries, summarize(todo.ID, todo.Title, todo.DueDate, todo.Completed))
	}
	return toolResult(map[string]any{"tasks": summaries})
}

func (a *Agent) runCompleteTask(ctx context.Context, userID, arguments string) string {
	var args taskIDArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return toolError(fmt.Errorf("parse arguments: %w", err))
	}
	todo, err := a.service.CompleteTodo(ctx, userID, args.ID)
	if err != nil {
		return toolError(err)
	}
	return toolResult(summarize(todo.ID, todo.Title, todo.DueDate, todo.Completed))
}

func (a *Agent) runUpdateTask(ctx context.Context, userID, arguments string) string {
	var args updateTaskArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return toolError(fmt.Errorf("parse arguments: %w", err))
	}
	input := domain.UpdateTodoInput{
		Title:       args.Title,
		Description: args.Description,
	}
	if args.DueDate != nil {
		if *args.DueDate == "" {
			input.DueDate = &time.Time{}
		} else {
			dueDate, err := domain.ParseDate(*args.DueDate)
			if err != nil {
				return toolError(err)
			}
			input.DueDate = &dueDate
		}
	}
	todo, err := a.service.UpdateTodo(ctx, userID, args.ID, input)
	if err != nil {
		return toolError(err)
	}
	return toolResult(summarize(todo.ID, todo.Title, todo.DueDate, todo.Completed))
}

func (a *Agent) runDeleteTask(ctx context.Context, userID, arguments string) string {
	var args taskIDArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return toolError(fmt.Errorf("parse arguments: %w", err))
	}
	if err := a.service.DeleteTodo(ctx, userID, args.ID); err != nil {
		return toolError(err)
	}
	return toolResult(map[string]string{"deleted": args.ID})
}

func summarize(id, title string, dueDate time.Time, completed bool) taskSummary {
	summary := taskSummary{ID: id, Title: title, Completed: completed}
	if !dueDate.IsZero() {
		summary.DueDate = domain.FormatDate(dueDate)
	}
	return summary
}

func toolResult(payload any) string {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return toolError(fmt.Errorf("encode tool result: %w", err))
	}
	return string(encoded)
}

func toolError(err error) string {
	encoded, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return `{"error":"internal"}`
	}
	return string(encoded)
}
