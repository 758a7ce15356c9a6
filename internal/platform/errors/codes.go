package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeRequestBad represents a malformed request envelope.
	CodeRequestBad Code = "REQUEST_INVALID"

	// Todo errors
	CodeTodoTitleEmpty   Code = "TODO_TITLE_EMPTY"
	CodeTodoDueDateBad   Code = "TODO_DUE_DATE_INVALID"
	CodeTodoAlreadyDone  Code = "TODO_ALREADY_COMPLETED"
	CodeTodoUserRequired Code = "TODO_USER_REQUIRED"

	// Series errors
	CodeSeriesTitleEmpty  Code = "SERIES_TITLE_EMPTY"
	CodeSeriesRuleEmpty   Code = "SERIES_RULE_EMPTY"
	CodeSeriesRuleInvalid Code = "SERIES_RULE_INVALID"
	CodeSeriesStartBad    Code = "SERIES_START_DATE_INVALID"

	// Occurrence errors
	CodeOccurrenceResolved   Code = "OCCURRENCE_ALREADY_RESOLVED"
	CodeOccurrenceBadStatus  Code = "OCCURRENCE_STATUS_INVALID"
	CodeOccurrenceRangeBad   Code = "OCCURRENCE_RANGE_INVALID"
	CodeOccurrenceDateNeeded Code = "OCCURRENCE_DATE_REQUIRED"

	// Auth errors
	CodeAuthTokenInvalid Code = "AUTH_TOKEN_INVALID"
	CodeAuthTokenExpired Code = "AUTH_TOKEN_EXPIRED"
	CodeAuthForbidden    Code = "AUTH_FORBIDDEN"

	// Chat errors
	CodeChatUnavailable   Code = "CHAT_UNAVAILABLE"
	CodeChatInputRequired Code = "CHAT_INPUT_REQUIRED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
