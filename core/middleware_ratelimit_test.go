package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/ratelimit"
)

type fakeRLCache struct {
	m map[string]interface{}
}

func newFakeRLCache() *fakeRLCache { return &fakeRLCache{m: make(map[string]interface{})} }

func (f *fakeRLCache) Get(key string) (interface{}, bool) {
	v, ok := f.m[key]
	return v, ok
}

func (f *fakeRLCache) Set(key string, value interface{}, cost int64) bool {
	f.m[key] = value
	return true
}

func (f *fakeRLCache) SetWithTTL(key string, value interface{}, cost int64, ttl time.Duration) bool {
	f.m[key] = value
	return true
}

func TestRateLimitMiddleware_NilLimiterPasses(t *testing.T) {
	app := &App{}
	app.SetConfig(config.NewDefaultConfig())

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := app.RateLimit(ratelimit.ClassLogin)(next)
	req := httptest.NewRequest(http.MethodPost, "/api/auth-with-password", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if !called {
		t.Fatal("expected next handler to run when no limiter is configured")
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	app := &App{}
	cfg := config.NewDefaultConfig()
	cfg.RateLimits.Login = config.RouteLimit{WindowSeconds: 900, MaxRequests: 1}
	app.SetConfig(cfg)
	app.SetRateLimiter(ratelimit.New(newFakeRLCache(), func() config.RateLimits {
		return app.Config().RateLimits
	}))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := app.RateLimit(ratelimit.ClassLogin)(next)

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/auth-with-password", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		return r
	}

	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, req())
	if rr1.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rr1.Code)
	}

	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req())
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rr2.Code)
	}
	if rr2.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429 response")
	}
}
