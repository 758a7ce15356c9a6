package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already out; nothing left to do but log at the caller.
		return
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.StatusFor(err), errorEnvelope{
		Code:    string(apperrors.CodeFor(err)),
		Message: publicMessage(err),
	})
}

// publicMessage keeps internal wrap chains out of responses: only structured
// domain errors expose their message.
func publicMessage(err error) string {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "internal error"
}

func decodeJSON(r *http.Request, target any) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBody)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeRequestBad, "request body is not valid JSON", err)
	}
	return nil
}

func badRequest(format string, args ...any) error {
	return apperrors.New(apperrors.CodeRequestBad, fmt.Sprintf(format, args...))
}
