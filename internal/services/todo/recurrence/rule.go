// Package recurrence implements recurring series and bounded occurrence
// materialization.
//
// A series carries an RFC 5545 RRULE. Instead of computing occurrences on
// every query or materializing an unbounded series in full, a bounded
// look-ahead window of occurrences is stored, tracked per series by a
// high-water mark (the furthest date already materialized). The database
// uniqueness constraint on (series, date) makes materialization idempotent
// under concurrent refills.
package recurrence

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
	"github.com/tidemark/tidemark/internal/services/todo/domain"
)

var (
	// ErrRuleEmpty indicates a missing recurrence rule.
	ErrRuleEmpty = apperrors.New(apperrors.CodeSeriesRuleEmpty, "recurrence rule is required")
)

// Rule is a parsed, validated recurrence rule anchored at a start date.
// Parsing happens once at the input boundary; refills reuse the parsed form.
type Rule struct {
	raw  string
	rule *rrule.RRule
}

// ParseRule validates an RRULE string and anchors it at the given start date.
// Malformed or unsupported rules are rejected here and never persisted.
func ParseRule(raw string, start time.Time) (Rule, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "RRULE:")
	if trimmed == "" {
		return Rule{}, ErrRuleEmpty
	}

	parsed, err := rrule.StrToRRule(trimmed)
	if err != nil {
		return Rule{}, apperrors.Wrap(apperrors.CodeSeriesRuleInvalid, "recurrence rule is invalid", err)
	}
	parsed.DTStart(domain.DateOf(start))
	return Rule{raw: trimmed, rule: parsed}, nil
}

// Raw returns the canonical rule string.
func (r Rule) Raw() string {
	return r.raw
}

// NextAfter returns the first occurrence date after t. When inclusive is
// true, a date equal to t qualifies. The second return is false when the
// rule yields no further dates (UNTIL or COUNT exhausted).
func (r Rule) NextAfter(t time.Time, inclusive bool) (time.Time, bool) {
	if r.rule == nil {
		return time.Time{}, false
	}
	next := r.rule.After(domain.DateOf(t), inclusive)
	if next.IsZero() {
		return time.Time{}, false
	}
	return domain.DateOf(next), true
}

// DatesBetween returns occurrence dates in the given range. The after bound
// is inclusive only when inclusive is true; the before bound follows the same
// flag, so callers trim the trailing edge themselves when they need a
// half-open window.
func (r Rule) DatesBetween(after, before time.Time, inclusive bool) []time.Time {
	if r.rule == nil {
		return nil
	}
	raw := r.rule.Between(domain.DateOf(after), domain.DateOf(before), inclusive)
	dates := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		dates = append(dates, domain.DateOf(d))
	}
	return dates
}
