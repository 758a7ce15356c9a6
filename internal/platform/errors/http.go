package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPStatus maps a domain error code to an HTTP status code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeRequestBad:
		return http.StatusBadRequest

	// Unprocessable input - validation failures, bad request bodies
	case CodeTodoTitleEmpty,
		CodeTodoDueDateBad,
		CodeTodoUserRequired,
		CodeSeriesTitleEmpty,
		CodeSeriesRuleEmpty,
		CodeSeriesRuleInvalid,
		CodeSeriesStartBad,
		CodeOccurrenceBadStatus,
		CodeOccurrenceRangeBad,
		CodeOccurrenceDateNeeded,
		CodeChatInputRequired:
		return http.StatusUnprocessableEntity

	// Conflict - state disallows the operation
	case CodeTodoAlreadyDone,
		CodeOccurrenceResolved:
		return http.StatusConflict

	case CodeAuthTokenInvalid, CodeAuthTokenExpired:
		return http.StatusUnauthorized

	case CodeAuthForbidden:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	case CodeChatUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// StatusFor resolves the HTTP status for any error, defaulting to 500 when
// the error carries no domain code.
func StatusFor(err error) int {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// CodeFor extracts the domain code from any error, or CodeUnknown.
func CodeFor(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}
