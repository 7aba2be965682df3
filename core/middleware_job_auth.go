package core

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/caasmo/restinpieces/crypto"
)

// Context keys carried by a verified job capability token.
const (
	JobIDKey     contextKey = "job_id"
	JobUserIDKey contextKey = "job_user_id"
)

// JobTokenValidate authenticates a request bearing a job capability token
// (minted by the Dispatcher via crypto.IssueJobToken) instead of a user
// session token. It is the authentication layer for the Result Ingestor
// surface (spec.md §6.2): a worker proves it may act on one specific job,
// not on the user's account in general.
func (a *App) JobTokenValidate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteJsonError(w, errorNoAuthHeader)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			WriteJsonError(w, errorInvalidTokenFormat)
			return
		}

		claims, err := crypto.VerifyJobToken(tokenString, []byte(a.Config().Jwt.JobTokenSecret))
		if err != nil {
			if errors.Is(err, crypto.ErrTokenExpired) {
				WriteJsonError(w, errorJwtTokenExpired)
			} else {
				WriteJsonError(w, errorJwtInvalidToken)
			}
			return
		}

		ctx := context.WithValue(r.Context(), JobIDKey, claims.JobID)
		ctx = context.WithValue(ctx, JobUserIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
