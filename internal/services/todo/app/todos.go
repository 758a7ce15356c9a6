package app

import (
	"context"
	"fmt"

	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

// CreateTodo validates input and persists a new one-off task.
func (s *Service) CreateTodo(ctx context.Context, input domain.CreateTodoInput) (domain.Todo, error) {
	if err := s.ready(); err != nil {
		return domain.Todo{}, err
	}

	todo, err := domain.NewTodo(input, s.clock, s.newID)
	if err != nil {
		return domain.Todo{}, err
	}
	if err := s.store.PutTodo(ctx, todoToRecord(todo)); err != nil {
		return domain.Todo{}, fmt.Errorf("store todo: %w", err)
	}
	return todo, nil
}

// GetTodo loads one todo owned by the user.
func (s *Service) GetTodo(ctx context.Context, userID, todoID string) (domain.Todo, error) {
	if err := s.ready(); err != nil {
		return domain.Todo{}, err
	}

	record, err := s.store.GetTodo(ctx, userID, todoID)
	if err != nil {
		return domain.Todo{}, err
	}
	return todoFromRecord(record)
}

// ListTodos returns the user's todos matching the filter.
func (s *Service) ListTodos(ctx context.Context, userID string, filter domain.TodoFilter) ([]domain.Todo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	records, err := s.store.ListTodos(ctx, userID, filterToRecord(filter))
	if err != nil {
		return nil, err
	}
	todos := make([]domain.Todo, 0, len(records))
	for _, record := range records {
		todo, err := todoFromRecord(record)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// UpdateTodo applies a partial update to one todo owned by the user.
func (s *Service) UpdateTodo(ctx context.Context, userID, todoID string, input domain.UpdateTodoInput) (domain.Todo, error) {
	if err := s.ready(); err != nil {
		return domain.Todo{}, err
	}

	record, err := s.store.GetTodo(ctx, userID, todoID)
	if err != nil {
		return domain.Todo{}, err
	}
	todo, err := todoFromRecord(record)
	if err != nil {
		return domain.Todo{}, err
	}
	updated, err := todo.ApplyUpdate(input, s.clock)
	if err != nil {
		return domain.Todo{}, err
	}
	if err := s.store.PutTodo(ctx, todoToRecord(updated)); err != nil {
		return domain.Todo{}, fmt.Errorf("store todo update: %w", err)
	}
	return updated, nil
}

// CompleteTodo marks one todo completed.
func (s *Service) CompleteTodo(ctx context.Context, userID, todoID string) (domain.Todo, error) {
	if err := s.ready(); err != nil {
		return domain.Todo{}, err
	}

	record, err := s.store.GetTodo(ctx, userID, todoID)
	if err != nil {
		return domain.Todo{}, err
	}
	todo, err := todoFromRecord(record)
	if err != nil {
		return domain.Todo{}, err
	}
	completed, err := todo.Complete(s.clock)
	if err != nil {
		return domain.Todo{}, err
	}
	if err := s.store.PutTodo(ctx, todoToRecord(completed)); err != nil {
		return domain.Todo{}, fmt.Errorf("store completed todo: %w", err)
	}
	return completed, nil
}

// DeleteTodo removes one todo owned by the user.
func (s *Service) DeleteTodo(ctx context.Context, userID, todoID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.DeleteTodo(ctx, userID, todoID)
}
