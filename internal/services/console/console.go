// Package console implements a menu-driven in-memory todo loop over
// stdin/stdout. It drives the same application service as the HTTP API
// but keeps everything in process memory for a single local user.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/app"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

const localUser = "local"

// Console runs an interactive todo session against an application service.
type Console struct {
	service *app.Service
	in      *bufio.Scanner
	out     io.Writer

	// listed holds the todos from the most recent listing so the
	// complete and delete prompts can refer to them by number.
	listed []domain.Todo
}

// New builds a console over the given service and streams.
func New(service *app.Service, in io.Reader, out io.Writer) *Console {
	return &Console{
		service: service,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run loops over the menu until the user quits or input ends.
func (c *Console) Run(ctx context.Context) error {
	if c == nil || c.service == nil {
		return fmt.Errorf("service is not configured")
	}

	fmt.Fprintln(c.out, "tidemark console")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "1) add todo")
		fmt.Fprintln(c.out, "2) list todos")
		fmt.Fprintln(c.out, "3) complete todo")
		fmt.Fprintln(c.out, "4) delete todo")
		fmt.Fprintln(c.out, "q) quit")

		choice, ok := c.prompt("> ")
		if !ok {
			return nil
		}

		var err error
		switch choice {
		case "1":
			err = c.addTodo(ctx)
		case "2":
			err = c.listTodos(ctx)
		case "3":
			err = c.completeTodo(ctx)
		case "4":
			err = c.deleteTodo(ctx)
		case "q", "quit", "exit":
			fmt.Fprintln(c.out, "bye")
			return nil
		case "":
			continue
		default:
			fmt.Fprintf(c.out, "unknown choice %q\n", choice)
			continue
		}
		if err != nil {
			if errors.Is(err, errInputClosed) {
				return nil
			}
			fmt.Fprintf(c.out, "error: %s\n", messageFor(err))
		}
	}
}

var errInputClosed = errors.New("input closed")

func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) addTodo(ctx context.Context) error {
	title, ok := c.prompt("title: ")
	if !ok {
		return errInputClosed
	}
	description, ok := c.prompt("description (optional): ")
	if !ok {
		return errInputClosed
	}
	dueRaw, ok := c.prompt("due date YYYY-MM-DD (optional): ")
	if !ok {
		return errInputClosed
	}

	input := domain.CreateTodoInput{
		UserID:      localUser,
		Title:       title,
		Description: description,
	}
	if dueRaw != "" {
		due, err := domain.ParseDate(dueRaw)
		if err != nil {
			return err
		}
		input.DueDate = due
	}

	todo, err := c.service.CreateTodo(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %q\n", todo.Title)
	return nil
}

func (c *Console) listTodos(ctx context.Context) error {
	todos, err := c.service.ListTodos(ctx, localUser, domain.TodoFilter{})
	if err != nil {
		return err
	}
	c.listed = todos
	if len(todos) == 0 {
		fmt.Fprintln(c.out, "no todos yet")
		return nil
	}
	for i, todo := range todos {
		marker := " "
		if todo.Completed {
			marker = "x"
		}
		line := fmt.Sprintf("%2d. [%s] %s", i+1, marker, todo.Title)
		if !todo.DueDate.IsZero() {
			line += " (due " + domain.FormatDate(todo.DueDate) + ")"
		}
		fmt.Fprintln(c.out, line)
	}
	return nil
}

func (c *Console) completeTodo(ctx context.Context) error {
	todo, err := c.pickTodo(ctx, "complete which number? ")
	if err != nil {
		return err
	}
	completed, err := c.service.CompleteTodo(ctx, localUser, todo.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "completed %q\n", completed.Title)
	return nil
}

func (c *Console) deleteTodo(ctx context.Context) error {
	todo, err := c.pickTodo(ctx, "delete which number? ")
	if err != nil {
		return err
	}
	if err := c.service.DeleteTodo(ctx, localUser, todo.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted %q\n", todo.Title)
	return nil
}

// pickTodo resolves a menu number against the most recent listing,
// refreshing it first so numbers always match what is on screen.
func (c *Console) pickTodo(ctx context.Context, label string) (domain.Todo, error) {
	if len(c.listed) == 0 {
		if err := c.listTodos(ctx); err != nil {
			return domain.Todo{}, err
		}
		if len(c.listed) == 0 {
			return domain.Todo{}, fmt.Errorf("nothing to pick")
		}
	}
	raw, ok := c.prompt(label)
	if !ok {
		return domain.Todo{}, errInputClosed
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > len(c.listed) {
		return domain.Todo{}, fmt.Errorf("pick a number between 1 and %d", len(c.listed))
	}
	return c.listed[n-1], nil
}

func messageFor(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
