package api

import (
	"net/http"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/app"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
)

type createSeriesRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Rule        string `json:"rule"`
	StartDate   string `json:"start_date"`
}

type updateSeriesRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Rule        *string `json:"rule"`
}

func (h *handler) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request createSeriesRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, err)
		return
	}

	input := recurrence.CreateSeriesInput{
		UserID:      userID,
		Title:       request.Title,
		Description: request.Description,
		Rule:        request.Rule,
	}
	if request.StartDate != "" {
		startDate, err := domain.ParseDate(request.StartDate)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeSeriesStartBad, "start date must be YYYY-MM-DD", err))
			return
		}
		input.StartDate = startDate
	}

	series, err := h.service.CreateSeries(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seriesToResponse(series))
}

func (h *handler) handleListSeries(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	series, err := h.service.ListSeries(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]seriesResponse, 0, len(series))
	for _, one := range series {
		responses = append(responses, seriesToResponse(one))
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": responses})
}

func (h *handler) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	series, err := h.service.GetSeries(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesToResponse(series))
}

func (h *handler) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var request updateSeriesRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, err)
		return
	}

	series, err := h.service.UpdateSeries(r.Context(), userID, r.PathValue("id"), app.UpdateSeriesInput{
		Title:       request.Title,
		Description: request.Description,
		Rule:        request.Rule,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesToResponse(series))
}

func (h *handler) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.DeleteSeries(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefillSeries forces a window top-up for one series, mainly for
// debugging a missed sweep.
func (h *handler) handleRefillSeries(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	series, err := h.service.GetSeries(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	inserted, err := h.service.RefillSeries(r.Context(), series)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}
