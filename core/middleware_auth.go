package core

import (
	"context"
	"net/http"
)

// contextKey is a type for context keys
type contextKey string

// Context keys
const (
	UserIDKey contextKey = "user_id"
)

// JwtValidate middleware authenticates the request via the App's configured
// Authenticator and stores the resolved user ID in the request context.
func (a *App) JwtValidate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, resp, err := a.Auth().Authenticate(r)
		if err != nil {
			WriteJsonError(w, resp)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
