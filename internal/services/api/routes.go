package api

import "net/http"

// registerRoutes wires all authenticated API routes.
func registerRoutes(mux *http.ServeMux, h *handler) {
	mux.HandleFunc(http.MethodGet+" /api/todos", h.handleListTodos)
	mux.HandleFunc(http.MethodPost+" /api/todos", h.handleCreateTodo)
	mux.HandleFunc(http.MethodGet+" /api/todos/{id}", h.handleGetTodo)
	mux.HandleFunc(http.MethodPatch+" /api/todos/{id}", h.handleUpdateTodo)
	mux.HandleFunc(http.MethodDelete+" /api/todos/{id}", h.handleDeleteTodo)
	mux.HandleFunc(http.MethodPost+" /api/todos/{id}/complete", h.handleCompleteTodo)
	mux.HandleFunc(http.MethodPost+" /api/todos/{id}/recurrence", h.handleConvertTodo)

	mux.HandleFunc(http.MethodGet+" /api/series", h.handleListSeries)
	mux.HandleFunc(http.MethodPost+" /api/series", h.handleCreateSeries)
	mux.HandleFunc(http.MethodGet+" /api/series/{id}", h.handleGetSeries)
	mux.HandleFunc(http.MethodPatch+" /api/series/{id}", h.handleUpdateSeries)
	mux.HandleFunc(http.MethodDelete+" /api/series/{id}", h.handleDeleteSeries)
	mux.HandleFunc(http.MethodPost+" /api/series/{id}/refill", h.handleRefillSeries)

	mux.HandleFunc(http.MethodGet+" /api/occurrences", h.handleListOccurrences)
	mux.HandleFunc(http.MethodPost+" /api/occurrences/{id}/complete", h.handleCompleteOccurrence)
	mux.HandleFunc(http.MethodPost+" /api/occurrences/{id}/skip", h.handleSkipOccurrence)

	mux.HandleFunc(http.MethodGet+" /api/agenda", h.handleAgenda)
	mux.HandleFunc(http.MethodPost+" /api/chat", h.handleChat)
}
