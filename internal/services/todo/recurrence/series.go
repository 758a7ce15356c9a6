package recurrence

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/platform/id"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

var (
	// ErrEmptyTitle indicates a missing series title.
	ErrEmptyTitle = apperrors.New(apperrors.CodeSeriesTitleEmpty, "series title is required")
	// ErrEmptyUserID indicates a missing owner user id.
	ErrEmptyUserID = apperrors.New(apperrors.CodeTodoUserRequired, "user id is required")
	// ErrStartDateRequired indicates a missing series start date.
	ErrStartDateRequired = apperrors.New(apperrors.CodeSeriesStartBad, "series start date is required")
	// ErrAlreadyResolved indicates the occurrence already left the pending state.
	ErrAlreadyResolved = apperrors.New(apperrors.CodeOccurrenceResolved, "occurrence is already resolved")
)

// Status represents the lifecycle state of one occurrence.
type Status string

const (
	// StatusPending marks an occurrence awaiting action.
	StatusPending Status = "pending"
	// StatusCompleted marks an occurrence the user finished.
	StatusCompleted Status = "completed"
	// StatusSkipped marks an occurrence the user deliberately passed over.
	StatusSkipped Status = "skipped"
)

// ParseStatus validates a stored status value.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusCompleted, StatusSkipped:
		return Status(value), nil
	default:
		return "", apperrors.WithMetadata(
			apperrors.CodeOccurrenceBadStatus,
			"occurrence status is invalid",
			map[string]string{"Status": value},
		)
	}
}

// Series is a recurring parent task. The series itself never completes; only
// its occurrences do. HighWater is the furthest date already materialized
// (zero before the first refill) and is persisted on the series record,
// updated transactionally with occurrence inserts, so concurrent refill
// instances only redo idempotent work.
type Series struct {
	ID              string
	UserID          string
	Title           string
	Description     string
	Rule            string
	StartDate       time.Time
	HighWater       time.Time
	OccurrenceCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateSeriesInput describes the metadata needed to create a series.
type CreateSeriesInput struct {
	UserID      string
	Title       string
	Description string
	Rule        string
	StartDate   time.Time
}

// NewSeries validates input, parses the rule, and creates a series with a
// generated id and timestamps.
func NewSeries(input CreateSeriesInput, now func() time.Time, idGenerator func() (string, error)) (Series, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return Series{}, ErrEmptyUserID
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Series{}, ErrEmptyTitle
	}
	if input.StartDate.IsZero() {
		return Series{}, ErrStartDateRequired
	}

	rule, err := ParseRule(input.Rule, input.StartDate)
	if err != nil {
		return Series{}, err
	}

	seriesID, err := idGenerator()
	if err != nil {
		return Series{}, fmt.Errorf("generate series id: %w", err)
	}

	createdAt := now().UTC()
	return Series{
		ID:          seriesID,
		UserID:      input.UserID,
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Rule:        rule.Raw(),
		StartDate:   domain.DateOf(input.StartDate),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// Occurrence is one concrete dated instance of a series. (SeriesID, Date) is
// unique; the storage layer enforces it.
type Occurrence struct {
	ID          string
	SeriesID    string
	Date        time.Time
	Status      Status
	CompletedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resolve transitions a pending occurrence to completed or skipped.
func (o Occurrence) Resolve(status Status, now func() time.Time) (Occurrence, error) {
	if status != StatusCompleted && status != StatusSkipped {
		return Occurrence{}, apperrors.WithMetadata(
			apperrors.CodeOccurrenceBadStatus,
			"occurrence can only resolve to completed or skipped",
			map[string]string{"Status": string(status)},
		)
	}
	if o.Status != StatusPending {
		return Occurrence{}, ErrAlreadyResolved
	}
	if now == nil {
		now = time.Now
	}
	resolvedAt := now().UTC()
	o.Status = status
	o.CompletedAt = resolvedAt
	o.UpdatedAt = resolvedAt
	return o, nil
}
