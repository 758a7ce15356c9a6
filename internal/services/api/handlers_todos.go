package api

import (
	"net/http"
	"time"

	"github.com/tidemark/tidemark/internal/auth"
	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
}

type convertTodoRequest struct {
	Rule      string `json:"rule"`
	StartDate string `json:"start_date"`
}

func requestUser(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "request is not authenticated")
	}
	return userID, nil
}

func (h *handler) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request createTodoRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, err)
		return
	}

	input := domain.CreateTodoInput{
		UserID:      userID,
		Title:       request.Title,
		Description: request.Description,
	}
	if request.DueDate != "" {
		dueDate, err := domain.ParseDate(request.DueDate)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeTodoDueDateBad, "due date must be YYYY-MM-DD", err))
			return
		}
		input.DueDate = dueDate
	}

	todo, err := h.service.CreateTodo(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, todoToResponse(todo))
}

func (h *handler) handleListTodos(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filter := domain.TodoFilter{}
	query := r.URL.Query()
	switch query.Get("completed") {
	case "":
	case "true":
		completed := true
		filter.Completed = &completed
	case "false":
		completed := false
		filter.Completed = &completed
	default:
		writeError(w, badRequest("completed must be true or false"))
		return
	}
	if from := query.Get("due_from"); from != "" {
		parsed, err := domain.ParseDate(from)
		if err != nil {
			writeError(w, badRequest("due_from must be YYYY-MM-DD"))
			return
		}
		filter.DueFrom = parsed
	}
	if to := query.Get("due_to"); to != "" {
		parsed, err := domain.ParseDate(to)
		if err != nil {
			writeError(w, badRequest("due_to must be YYYY-MM-DD"))
			return
		}
		filter.DueTo = parsed
	}

	todos, err := h.service.ListTodos(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]todoResponse, 0, len(todos))
	for _, todo := range todos {
		responses = append(responses, todoToResponse(todo))
	}
	writeJSON(w, http.StatusOK, map[string]any{"todos": responses})
}

func (h *handler) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	todo, err := h.service.GetTodo(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todoToResponse(todo))
}

func (h *handler) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request updateTodoRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, err)
		return
	}

	input := domain.UpdateTodoInput{
		Title:       request.Title,
		Description: request.Description,
	}
	if request.DueDate != nil {
		if *request.DueDate == "" {
			input.DueDate = &time.Time{}
		} else {
			parsed, err := domain.ParseDate(*request.DueDate)
			if err != nil {
				writeError(w, apperrors.Wrap(apperrors.CodeTodoDueDateBad, "due date must be YYYY-MM-DD", err))
				return
			}
			input.DueDate = &parsed
		}
	}

	todo, err := h.service.UpdateTodo(r.Context(), userID, r.PathValue("id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todoToResponse(todo))
}

func (h *handler) handleCompleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	todo, err := h.service.CompleteTodo(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todoToResponse(todo))
}

func (h *handler) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.DeleteTodo(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleConvertTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request convertTodoRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, err)
		return
	}

	var startDate time.Time
	if request.StartDate != "" {
		parsed, err := domain.ParseDate(request.StartDate)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeSeriesStartBad, "start date must be YYYY-MM-DD", err))
			return
		}
		startDate = parsed
	}

	series, err := h.service.ConvertTodoToSeries(r.Context(), userID, r.PathValue("id"), request.Rule, startDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seriesToResponse(series))
}
