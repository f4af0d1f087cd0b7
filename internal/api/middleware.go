package api

import (
	"context"
	"net/http"

	"github.com/shelfrate/shelfrate-server/internal/http/response"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyUserID contextKey = "user_id"

// identityHeader names the trusted header carrying the caller identity.
// Authentication itself happens upstream of this service.
const identityHeader = "X-User-ID"

// withIdentity attaches the caller identity from the identity header, when
// present, to the request context.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(identityHeader); userID != "" {
			ctx := context.WithValue(r.Context(), contextKeyUserID, userID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// requireIdentity rejects requests that carry no caller identity.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getUserID(r.Context()) == "" {
			response.Unauthorized(w, "Missing "+identityHeader+" header", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getUserID extracts the caller identity from request context.
// Returns empty string if not identified.
func getUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		return userID
	}
	return ""
}
