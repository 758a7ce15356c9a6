package api

import (
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/tidemark/tidemark/internal/auth"
	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/app"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

// feedLookbackDays extends the calendar feed into the recent past so clients
// render completed items around today.
const feedLookbackDays = 30

// feedSigner validates the signed token carried in the feed URL. Calendar
// clients cannot send Authorization headers, so the feed authenticates with a
// token query parameter instead.
type feedSigner struct {
	verifier auth.Verifier
}

func (f feedSigner) authorize(r *http.Request, userID string) error {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return apperrors.New(apperrors.CodeAuthTokenInvalid, "feed token is required")
	}
	claims, err := f.verifier.Verify(token)
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return apperrors.New(apperrors.CodeAuthForbidden, "feed token does not match the requested user")
	}
	return nil
}

// handleFeed serves the user's agenda as an iCalendar document of all-day
// events.
func (h *handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSuffix(r.PathValue("user"), ".ics")
	if userID == "" || userID == r.PathValue("user") {
		writeError(w, apperrors.New(apperrors.CodeNotFound, "feed not found"))
		return
	}
	if err := h.feed.authorize(r, userID); err != nil {
		writeError(w, err)
		return
	}

	today := domain.DateOf(h.now())
	from := today.AddDate(0, 0, -feedLookbackDays)
	to := today.AddDate(0, 0, h.service.HorizonDays())
	items, err := h.service.Agenda(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(buildCalendar(items, h.now())))
}

func buildCalendar(items []app.AgendaItem, now time.Time) string {
	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId("-//Tidemark//Agenda Feed//EN")

	for _, item := range items {
		event := calendar.AddEvent(item.Kind + "-" + item.ID + "@tidemark")
		event.SetDtStampTime(now.UTC())
		event.SetAllDayStartAt(item.Date)
		event.SetAllDayEndAt(item.Date.AddDate(0, 0, 1))
		summary := item.Title
		switch item.Status {
		case "completed":
			summary = "✓ " + summary
		case "skipped":
			summary = "⊘ " + summary
		}
		event.SetSummary(summary)
		if item.Description != "" {
			event.SetDescription(item.Description)
		}
	}
	return calendar.Serialize()
}
