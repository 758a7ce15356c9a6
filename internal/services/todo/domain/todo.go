// Package domain provides the one-off todo task model.
package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/platform/id"
)

var (
	// ErrEmptyTitle indicates a missing todo title.
	ErrEmptyTitle = apperrors.New(apperrors.CodeTodoTitleEmpty, "title is required")
	// ErrEmptyUserID indicates a missing owner user id.
	ErrEmptyUserID = apperrors.New(apperrors.CodeTodoUserRequired, "user id is required")
	// ErrAlreadyCompleted indicates the todo is already completed.
	ErrAlreadyCompleted = apperrors.New(apperrors.CodeTodoAlreadyDone, "todo is already completed")
)

// Todo represents a one-off task owned by a single user.
type Todo struct {
	ID          string
	UserID      string
	Title       string
	Description string
	DueDate     time.Time // zero when unset; always a UTC calendar date
	Completed   bool
	CompletedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateTodoInput describes the metadata needed to create a todo.
type CreateTodoInput struct {
	UserID      string
	Title       string
	Description string
	DueDate     time.Time
}

// UpdateTodoInput captures mutable todo fields; nil pointers leave the field
// unchanged.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
}

// TodoFilter narrows todo listings.
type TodoFilter struct {
	Completed *bool
	DueFrom   time.Time
	DueTo     time.Time
}

// NewTodo creates a todo with a generated id and timestamps.
func NewTodo(input CreateTodoInput, now func() time.Time, idGenerator func() (string, error)) (Todo, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateTodoInput(input)
	if err != nil {
		return Todo{}, err
	}

	todoID, err := idGenerator()
	if err != nil {
		return Todo{}, fmt.Errorf("generate todo id: %w", err)
	}

	createdAt := now().UTC()
	return Todo{
		ID:          todoID,
		UserID:      normalized.UserID,
		Title:       normalized.Title,
		Description: normalized.Description,
		DueDate:     normalized.DueDate,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// NormalizeCreateTodoInput trims and validates todo input metadata.
func NormalizeCreateTodoInput(input CreateTodoInput) (CreateTodoInput, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return CreateTodoInput{}, ErrEmptyUserID
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return CreateTodoInput{}, ErrEmptyTitle
	}
	input.Description = strings.TrimSpace(input.Description)
	if !input.DueDate.IsZero() {
		input.DueDate = DateOf(input.DueDate)
	}
	return input, nil
}

// ApplyUpdate merges an update into the todo and bumps UpdatedAt.
func (t Todo) ApplyUpdate(input UpdateTodoInput, now func() time.Time) (Todo, error) {
	if now == nil {
		now = time.Now
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return Todo{}, ErrEmptyTitle
		}
		t.Title = title
	}
	if input.Description != nil {
		t.Description = strings.TrimSpace(*input.Description)
	}
	if input.DueDate != nil {
		if input.DueDate.IsZero() {
			t.DueDate = time.Time{}
		} else {
			t.DueDate = DateOf(*input.DueDate)
		}
	}
	t.UpdatedAt = now().UTC()
	return t, nil
}

// Complete marks the todo completed at the given instant.
func (t Todo) Complete(now func() time.Time) (Todo, error) {
	if t.Completed {
		return Todo{}, ErrAlreadyCompleted
	}
	if now == nil {
		now = time.Now
	}
	completedAt := now().UTC()
	t.Completed = true
	t.CompletedAt = completedAt
	t.UpdatedAt = completedAt
	return t, nil
}
