package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
)

type contextKey struct{}

var userIDKey contextKey

// UserIDFromContext returns the authenticated user id placed by Middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// WithUserID returns a context carrying the given user id. Intended for tests
// and in-process callers such as the console app.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Middleware enforces bearer-token authentication and injects the user id
// into the request context.
func Middleware(verifier Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, apperrors.New(apperrors.CodeAuthTokenInvalid, "missing bearer token"))
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.StatusFor(err))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    string(apperrors.CodeFor(err)),
		"message": err.Error(),
	})
}
