// Package middleware provides the HTTP middleware stack: bearer-token
// authentication and structured request logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"messynotes-backend/pkg/auth"

	"go.uber.org/zap"
)

type contextKey struct{ name string }

var userIDKey = contextKey{"userID"}

// UserIDFromContext returns the authenticated user ID placed in the
// context by Authenticate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// WithUserID returns a context carrying the given user ID. Exposed for
// handler tests that bypass the middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Authenticate validates the Authorization bearer token and stores its
// subject claim as the user ID.
func Authenticate(secret, issuer string, logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := auth.NewValidator(auth.Config{Secret: secret, Issuer: issuer})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondUnauthorized(w, "missing bearer token")
				return
			}

			userID, err := validator.Validate(token)
			if err != nil {
				logger.Warn("rejected token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				respondUnauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
