package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/mobaserver/internal/api/apierr"
	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/connection"
)

type contextKey string

const connectionContextKey contextKey = "connection"

// TokenValidator resolves a bearer token to the connection it was issued for
type TokenValidator interface {
	Validate(token string) (model.ConnectionID, error)
}

var _ TokenValidator = (*connection.Service)(nil)

// Auth creates authentication middleware
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			id, err := validator.Validate(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := WithConnectionID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the connection token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// EventSource cannot set headers, so the stream may pass it as a query param
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}

// WithConnectionID returns a context carrying the caller's connection id
func WithConnectionID(ctx context.Context, id model.ConnectionID) context.Context {
	return context.WithValue(ctx, connectionContextKey, id)
}

// GetConnectionID returns the authenticated connection id from the request context
func GetConnectionID(ctx context.Context) (model.ConnectionID, bool) {
	id, ok := ctx.Value(connectionContextKey).(model.ConnectionID)
	return id, ok && id != ""
}

// MustGetConnectionID returns the authenticated connection id or panics
func MustGetConnectionID(ctx context.Context) model.ConnectionID {
	id, ok := GetConnectionID(ctx)
	if !ok {
		panic("no connection in context - auth middleware not applied?")
	}
	return id
}
