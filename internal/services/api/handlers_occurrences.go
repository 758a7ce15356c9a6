package api

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

// dateRange resolves the from/to query parameters, defaulting to the window
// [today, today+horizon] when both are absent.
func (h *handler) dateRange(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()
	fromValue := query.Get("from")
	toValue := query.Get("to")

	if fromValue == "" && toValue == "" {
		today := domain.DateOf(h.now())
		return today, today.AddDate(0, 0, h.service.HorizonDays()), nil
	}
	if fromValue == "" || toValue == "" {
		return time.Time{}, time.Time{}, badRequest("from and to must be provided together")
	}

	from, err := domain.ParseDate(fromValue)
	if err != nil {
		return time.Time{}, time.Time{}, badRequest("from must be YYYY-MM-DD")
	}
	to, err := domain.ParseDate(toValue)
	if err != nil {
		return time.Time{}, time.Time{}, badRequest("to must be YYYY-MM-DD")
	}
	return from, to, nil
}

func (h *handler) handleListOccurrences(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	from, to, err := h.dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	occurrences, err := h.service.ListOccurrences(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]occurrenceResponse, 0, len(occurrences))
	for _, occurrence := range occurrences {
		responses = append(responses, occurrenceToResponse(occurrence))
	}
	writeJSON(w, http.StatusOK, map[string]any{"occurrences": responses})
}

func (h *handler) handleCompleteOccurrence(w http.ResponseWriter, r *http.Request) {
	h.resolveOccurrence(w, r, "complete")
}

func (h *handler) handleSkipOccurrence(w http.ResponseWriter, r *http.Request) {
	h.resolveOccurrence(w, r, "skip")
}

func (h *handler) resolveOccurrence(w http.ResponseWriter, r *http.Request, action string) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	occurrenceID := strings.TrimSpace(r.PathValue("id"))
	if occurrenceID == "" {
		writeError(w, apperrors.New(apperrors.CodeOccurrenceDateNeeded, "occurrence id is required"))
		return
	}

	var resolution any
	switch action {
	case "complete":
		result, err := h.service.CompleteOccurrence(r.Context(), userID, occurrenceID)
		if err != nil {
			writeError(w, err)
			return
		}
		resolution = resolutionToResponse(result.Occurrence, result.Next)
	default:
		result, err := h.service.SkipOccurrence(r.Context(), userID, occurrenceID)
		if err != nil {
			writeError(w, err)
			return
		}
		resolution = resolutionToResponse(result.Occurrence, result.Next)
	}
	writeJSON(w, http.StatusOK, resolution)
}

func (h *handler) handleAgenda(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var from, to time.Time
	if dateValue := r.URL.Query().Get("date"); dateValue != "" {
		day, err := domain.ParseDate(dateValue)
		if err != nil {
			writeError(w, badRequest("date must be YYYY-MM-DD"))
			return
		}
		from, to = day, day
	} else {
		var err error
		from, to, err = h.dateRange(r)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	items, err := h.service.Agenda(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]agendaItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, agendaItemToResponse(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": responses})
}
