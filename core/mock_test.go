package core

import (
	"context"
	"net/http"
	"time"

	"github.com/caasmo/restinpieces/config"
	"github.com/caasmo/restinpieces/db"
	"github.com/caasmo/restinpieces/notify"
)

// mockCache is a mock for cache.Cache
type mockCache struct{}

func (m *mockCache) Set(key string, value interface{}, cost int64) bool { return true }
func (m *mockCache) Get(key string) (interface{}, bool) {
	return nil, false
}
func (m *mockCache) Del(key string) {}
func (m *mockCache) SetWithTTL(key string, value interface{}, cost int64, ttl time.Duration) bool {
	return true
}

// mockNotifier is a mock for notify.Notifier
type mockNotifier struct{}

func (m *mockNotifier) Send(ctx context.Context, n notify.Notification) error {
	return nil
}

// mockConfigProvider is a manual mock for config.Provider
type mockConfigProvider struct {
	config.Provider
	getFunc func() *config.Config
}

func (m *mockConfigProvider) Get() *config.Config {
	if m.getFunc != nil {
		return m.getFunc()
	}
	return nil
}

// MockAuth implements the Authenticator interface for testing
type MockAuth struct {
	AuthenticateFunc func(r *http.Request) (*db.User, jsonResponse, error)
}

func (m *MockAuth) Authenticate(r *http.Request) (*db.User, jsonResponse, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(r)
	}
	return nil, jsonResponse{}, nil
}

// MockValidator implements the Validator interface for testing
type MockValidator struct {
	ContentTypeFunc func(r *http.Request, allowedType string) (jsonResponse, error)
}

func (m *MockValidator) ContentType(r *http.Request, allowedType string) (jsonResponse, error) {
	return m.ContentTypeFunc(r, allowedType)
}
