package api

import (
	"time"

	"github.com/tidemark/tidemark/internal/services/todo/app"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
)

type todoResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completed_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type seriesResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Rule            string `json:"rule"`
	StartDate       string `json:"start_date"`
	HighWater       string `json:"high_water,omitempty"`
	OccurrenceCount int    `json:"occurrence_count"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type occurrenceResponse struct {
	ID          string `json:"id"`
	SeriesID    string `json:"series_id"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type agendaItemResponse struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	SeriesID    string `json:"series_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

type resolutionResponse struct {
	Occurrence occurrenceResponse  `json:"occurrence"`
	Next       *occurrenceResponse `json:"next,omitempty"`
}

func formatInstant(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func todoToResponse(todo domain.Todo) todoResponse {
	response := todoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		CompletedAt: formatInstant(todo.CompletedAt),
		CreatedAt:   formatInstant(todo.CreatedAt),
		UpdatedAt:   formatInstant(todo.UpdatedAt),
	}
	if !todo.DueDate.IsZero() {
		response.DueDate = domain.FormatDate(todo.DueDate)
	}
	return response
}

func seriesToResponse(series recurrence.Series) seriesResponse {
	response := seriesResponse{
		ID:              series.ID,
		Title:           series.Title,
		Description:     series.Description,
		Rule:            series.Rule,
		StartDate:       domain.FormatDate(series.StartDate),
		OccurrenceCount: series.OccurrenceCount,
		CreatedAt:       formatInstant(series.CreatedAt),
		UpdatedAt:       formatInstant(series.UpdatedAt),
	}
	if !series.HighWater.IsZero() {
		response.HighWater = domain.FormatDate(series.HighWater)
	}
	return response
}

func occurrenceToResponse(occurrence recurrence.Occurrence) occurrenceResponse {
	return occurrenceResponse{
		ID:          occurrence.ID,
		SeriesID:    occurrence.SeriesID,
		Date:        domain.FormatDate(occurrence.Date),
		Status:      string(occurrence.Status),
		CompletedAt: formatInstant(occurrence.CompletedAt),
	}
}

func resolutionToResponse(occurrence recurrence.Occurrence, next *recurrence.Occurrence) resolutionResponse {
	response := resolutionResponse{Occurrence: occurrenceToResponse(occurrence)}
	if next != nil {
		nextResponse := occurrenceToResponse(*next)
		response.Next = &nextResponse
	}
	return response
}

func agendaItemToResponse(item app.AgendaItem) agendaItemResponse {
	return agendaItemResponse{
		Kind:        item.Kind,
		ID:          item.ID,
		SeriesID:    item.SeriesID,
		Title:       item.Title,
		Description: item.Description,
		Date:        domain.FormatDate(item.Date),
		Status:      item.Status,
	}
}
