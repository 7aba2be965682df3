package core

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/caasmo/restinpieces/crypto"
	"github.com/caasmo/restinpieces/db"
)

// Authenticator defines the interface for authentication operations
type Authenticator interface {
	Authenticate(r *http.Request) (*db.User, jsonResponse, error)
}

// DefaultAuthenticator implements Authenticator using the standard authentication flow.
// app supplies the current db and config, so the authenticator always sees a
// hot-reloaded config without needing its own provider reference.
type DefaultAuthenticator struct {
	app    *App
	logger *slog.Logger
}

// NewDefaultAuthenticator creates a new DefaultAuthenticator instance
func NewDefaultAuthenticator(app *App, logger *slog.Logger) *DefaultAuthenticator {
	return &DefaultAuthenticator{
		app:    app,
		logger: logger,
	}
}

// Authenticate implements the Authenticator interface. It verifies the
// bearer access token minted by crypto.IssueAccessToken and resolves it to
// the user it names. Unlike the old per-user-signing-key session scheme,
// the access token is self-contained: one shared secret verifies every
// user's token, so there is no extra lookup before signature verification.
func (a *DefaultAuthenticator) Authenticate(r *http.Request) (*db.User, jsonResponse, error) {
	errAuth := errors.New("auth error")

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errorNoAuthHeader, errAuth
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, errorInvalidTokenFormat, errAuth
	}

	cfg := a.app.Config()
	claims, err := crypto.VerifyAccessToken(tokenString, []byte(cfg.Jwt.UserTokenSecret))
	if err != nil {
		if errors.Is(err, crypto.ErrTokenExpired) {
			return nil, errorJwtTokenExpired, errAuth
		}
		return nil, errorJwtInvalidToken, errAuth
	}

	user, err := a.app.Db().GetUserByID(claims.UserID)
	if err != nil || user == nil {
		return nil, errorJwtInvalidToken, errAuth
	}

	return user, jsonResponse{}, nil
}
