package core

import (
	"net/http"
	"strconv"
	"time"

	"github.com/caasmo/restinpieces/ratelimit"
)

// RateLimit builds a middleware enforcing class's request budget. The
// principal is the authenticated user ID when JwtValidate ran upstream in
// the chain, otherwise the caller's IP address (via the configured proxy
// header). A nil App.RateLimiter() makes this middleware a no-op, so routes
// can adopt it before a limiter is wired up.
func (a *App) RateLimit(class ratelimit.RouteClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := a.RateLimiter()
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := r.Context().Value(UserIDKey).(string)
			if !ok || principal == "" {
				principal = a.GetClientIP(r)
			}

			retryAfter, err := limiter.Allow(class, principal, time.Now())
			if err != nil {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				WriteJsonError(w, errorTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
