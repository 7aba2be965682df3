package core

import (
	"log/slog"

	"github.com/caasmo/restinpieces/admission"
	"github.com/caasmo/restinpieces/cache"
	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/db"
	"github.com/caasmo/restinpieces/ratelimit"
	"github.com/caasmo/restinpieces/router"
)

type Option func(*App)

// New is an alias for NewApp, for callers that prefer the shorter name.
func New(opts ...Option) (*App, error) {
	return NewApp(opts...)
}

// WithCache sets the cache implementation
func WithCache(c cache.Cache[string, interface{}]) Option {
	return func(a *App) {
		a.cache = c
	}
}

// WithDB sets the database implementation.
func WithDB(d db.Db) Option {
	return func(a *App) {
		a.db = d
	}
}

// WithRouter sets the router implementation
func WithRouter(r router.Router) Option {
	return func(a *App) {
		a.router = r
	}
}

// WithConfig sets the application's initial configuration.
func WithConfig(c *config.Config) Option {
	return func(a *App) {
		a.config.Store(c)
	}
}

// WithLogger sets the logger implementation
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithValidator overrides the default request validator.
func WithValidator(v Validator) Option {
	return func(a *App) {
		a.validator = v
	}
}

// WithAuthenticator overrides the default authenticator.
func WithAuthenticator(auth Authenticator) Option {
	return func(a *App) {
		a.authenticator = auth
	}
}

// WithRateLimiter sets the request rate limiter. Omitting this option leaves
// rate limiting disabled.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(a *App) {
		a.rateLimiter = l
	}
}

// WithAdmission sets the admission controller backing job submission.
// Omitting this option leaves POST /jobs unavailable.
func WithAdmission(c *admission.Controller) Option {
	return func(a *App) {
		a.admission = c
	}
}

// WithWorkPoller sets the channel the Dispatcher delivers work orders
// through and GET /work long-polls from. Omitting this option leaves the
// worker poll endpoint unavailable.
func WithWorkPoller(p *WorkPoller) Option {
	return func(a *App) {
		a.workPoller = p
	}
}
