// Package ratelimit implements the per-principal sliding-window request cap
// (spec.md §4.2) in front of the job-orchestration API surface.
package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"github.com/caasmo/restinpieces/cache"
	"github.com/caasmo/restinpieces/config"
)

// ErrRateLimited is returned by Allow when the principal has exhausted its
// quota for the current window.
var ErrRateLimited = errors.New("rate limited")

// RouteClass identifies which config.RouteLimit governs a request.
type RouteClass string

const (
	ClassLogin             RouteClass = "login"
	ClassRegister          RouteClass = "register"
	ClassJobManagement     RouteClass = "job_management"
	ClassAccountManagement RouteClass = "account_management"
	ClassWorkerRead        RouteClass = "worker_read"
)

// Limiter is a fixed-window counter keyed by (class, principal), following
// the same cache-bucket idiom as core.BlockIP: the current window's count
// lives under a TTL'd cache key, so expiry is free and there is nothing to
// sweep. The counter is advisory per spec.md §4.2 — Get-then-Set under
// concurrent load can under-count, which is an accepted false negative.
type Limiter struct {
	cache cache.Cache[string, interface{}]
	cfg   func() config.RateLimits
}

// New builds a Limiter over c, reading limits from cfg on every call so
// config hot-reload (SIGHUP) takes effect without recreating the Limiter.
func New(c cache.Cache[string, interface{}], cfg func() config.RateLimits) *Limiter {
	return &Limiter{cache: c, cfg: cfg}
}

func (l *Limiter) limitFor(class RouteClass) config.RouteLimit {
	rl := l.cfg()
	switch class {
	case ClassLogin:
		return rl.Login
	case ClassRegister:
		return rl.Register
	case ClassJobManagement:
		return rl.JobManagement
	case ClassAccountManagement:
		return rl.AccountManagement
	case ClassWorkerRead:
		return rl.WorkerRead
	default:
		return config.RouteLimit{WindowSeconds: 900, MaxRequests: 30}
	}
}

// Allow reports whether principal may make one more request of class at
// now. On ErrRateLimited, retryAfter is how long until the window rolls over.
func (l *Limiter) Allow(class RouteClass, principal string, now time.Time) (retryAfter time.Duration, err error) {
	limit := l.limitFor(class)
	if limit.WindowSeconds <= 0 || limit.MaxRequests <= 0 {
		return 0, nil
	}

	window := time.Duration(limit.WindowSeconds) * time.Second
	bucket := now.Unix() / int64(limit.WindowSeconds)
	key := fmt.Sprintf("ratelimit|%s|%s|%d", class, principal, bucket)

	bucketEnd := time.Unix((bucket+1)*int64(limit.WindowSeconds), 0)
	retryAfter = bucketEnd.Sub(now)

	count := 0
	if v, found := l.cache.Get(key); found {
		if c, ok := v.(int); ok {
			count = c
		}
	}

	if count >= limit.MaxRequests {
		return retryAfter, ErrRateLimited
	}

	l.cache.SetWithTTL(key, count+1, 1, window)
	return 0, nil
}
