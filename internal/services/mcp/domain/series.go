package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidemark/tidemark/internal/services/todo/app"
	todo "github.com/tidemark/tidemark/internal/services/todo/domain"
	"github.com/tidemark/tidemark/internal/services/todo/recurrence"
)

// SeriesSummary represents one recurring series in MCP tool output.
type SeriesSummary struct {
	ID              string `json:"id" jsonschema:"series identifier"`
	Title           string `json:"title" jsonschema:"series title"`
	Rule            string `json:"rule" jsonschema:"recurrence rule"`
	StartDate       string `json:"start_date" jsonschema:"first occurrence date, YYYY-MM-DD"`
	HighWater       string `json:"high_water,omitempty" jsonschema:"furthest materialized date"`
	OccurrenceCount int    `json:"occurrence_count" jsonschema:"number of materialized occurrences"`
}

// SeriesCreateInput represents the MCP tool input for creating a series.
type SeriesCreateInput struct {
	Title       string `json:"title" jsonschema:"series title"`
	Description string `json:"description,omitempty" jsonschema:"optional detail"`
	Rule        string `json:"rule" jsonschema:"RRULE recurrence rule, e.g. FREQ=DAILY"`
	StartDate   string `json:"start_date" jsonschema:"first occurrence date, YYYY-MM-DD"`
}

// SeriesCreateResult represents the MCP tool output for creating a series.
type SeriesCreateResult struct {
	Series SeriesSummary `json:"series" jsonschema:"the created series"`
}

// SeriesCreateTool defines the MCP tool schema for creating a series.
func SeriesCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "series_create",
		Description: "Creates a recurring task series and materializes its upcoming occurrences",
	}
}

// SeriesCreateHandler creates a recurring series for the configured user.
func SeriesCreateHandler(service *app.Service, userID string) mcp.ToolHandlerFor[SeriesCreateInput, SeriesCreateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SeriesCreateInput) (*mcp.CallToolResult, SeriesCreateResult, error) {
		create := recurrence.CreateSeriesInput{
			UserID:      userID,
			Title:       input.Title,
			Description: input.Description,
			Rule:        input.Rule,
		}
		if input.StartDate != "" {
			startDate, err := todo.ParseDate(input.StartDate)
			if err != nil {
				return nil, SeriesCreateResult{}, fmt.Errorf("parse start date: %w", err)
			}
			create.StartDate = startDate
		}
		created, err := service.CreateSeries(ctx, create)
		if err != nil {
			return nil, SeriesCreateResult{}, fmt.Errorf("create series: %w", err)
		}
		return nil, SeriesCreateResult{Series: summarizeSeries(created)}, nil
	}
}

// OccurrenceSummary represents one occurrence in MCP tool output.
type OccurrenceSummary struct {
	ID       string `json:"id" jsonschema:"occurrence identifier"`
	SeriesID string `json:"series_id" jsonschema:"owning series identifier"`
	Date     string `json:"date" jsonschema:"occurrence date, YYYY-MM-DD"`
	Status   string `json:"status" jsonschema:"pending, completed, or skipped"`
}

// OccurrenceCompleteInput represents the MCP tool input for completing an
// occurrence.
type OccurrenceCompleteInput struct {
	ID string `json:"id" jsonschema:"occurrence identifier from agenda_list"`
}

// OccurrenceCompleteResult represents the MCP tool output for completing an
// occurrence.
type OccurrenceCompleteResult struct {
	Occurrence OccurrenceSummary  `json:"occurrence" jsonschema:"the completed occurrence"`
	Next       *OccurrenceSummary `json:"next,omitempty" jsonschema:"occurrence materialized to keep the window filled"`
}

// OccurrenceCompleteTool defines the MCP tool schema for completing an
// occurrence.
func OccurrenceCompleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "occurrence_complete",
		Description: "Marks a recurring task occurrence completed",
	}
}

// OccurrenceCompleteHandler completes one occurrence and reports the window
// top-up.
func OccurrenceCompleteHandler(service *app.Service, userID string) mcp.ToolHandlerFor[OccurrenceCompleteInput, OccurrenceCompleteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OccurrenceCompleteInput) (*mcp.CallToolResult, OccurrenceCompleteResult, error) {
		resolution, err := service.CompleteOccurrence(ctx, userID, input.ID)
		if err != nil {
			return nil, OccurrenceCompleteResult{}, fmt.Errorf("complete occurrence: %w", err)
		}
		result := OccurrenceCompleteResult{Occurrence: summarizeOccurrence(resolution.Occurrence)}
		if resolution.Next != nil {
			next := summarizeOccurrence(*resolution.Next)
			result.Next = &next
		}
		return nil, result, nil
	}
}

// AgendaListInput represents the MCP tool input for reading the agenda.
type AgendaListInput struct {
	From string `json:"from" jsonschema:"range start date, YYYY-MM-DD"`
	To   string `json:"to" jsonschema:"range end date, YYYY-MM-DD"`
}

// AgendaItem represents one agenda entry in MCP tool output.
type AgendaItem struct {
	Kind     string `json:"kind" jsonschema:"todo or occurrence"`
	ID       string `json:"id" jsonschema:"item identifier"`
	SeriesID string `json:"series_id,omitempty" jsonschema:"owning series for occurrences"`
	Title    string `json:"title" jsonschema:"item title"`
	Date     string `json:"date" jsonschema:"item date, YYYY-MM-DD"`
	Status   string `json:"status" jsonschema:"item status"`
}

// AgendaListResult represents the MCP tool output for reading the agenda.
type AgendaListResult struct {
	Items []AgendaItem `json:"items" jsonschema:"dated items in the range"`
}

// AgendaListTool defines the MCP tool schema for reading the agenda.
func AgendaListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "agenda_list",
		Description: "Lists dated tasks and recurring occurrences in a date range",
	}
}

// AgendaListHandler returns the configured user's merged agenda.
func AgendaListHandler(service *app.Service, userID string) mcp.ToolHandlerFor[AgendaListInput, AgendaListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AgendaListInput) (*mcp.CallToolResult, AgendaListResult, error) {
		from, err := todo.ParseDate(input.From)
		if err != nil {
			return nil, AgendaListResult{}, fmt.Errorf("parse from: %w", err)
		}
		to, err := todo.ParseDate(input.To)
		if err != nil {
			return nil, AgendaListResult{}, fmt.Errorf("parse to: %w", err)
		}
		items, err := service.Agenda(ctx, userID, from, to)
		if err != nil {
			return nil, AgendaListResult{}, fmt.Errorf("list agenda: %w", err)
		}
		result := AgendaListResult{Items: make([]AgendaItem, 0, len(items))}
		for _, item := range items {
			result.Items = append(result.Items, AgendaItem{
				Kind:     item.Kind,
				ID:       item.ID,
				SeriesID: item.SeriesID,
				Title:    item.Title,
				Date:     todo.FormatDate(item.Date),
				Status:   item.Status,
			})
		}
		return nil, result, nil
	}
}

func summarizeOccurrence(occurrence recurrence.Occurrence) OccurrenceSummary {
	return OccurrenceSummary{
		ID:       occurrence.ID,
		SeriesID: occurrence.SeriesID,
		Date:     todo.FormatDate(occurrence.Date),
		Status:   string(occurrence.Status),
	}
}
