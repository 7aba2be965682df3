package core

import (
	"encoding/json"
	"net/http"

	"github.com/caasmo/restinpieces/crypto"
)

// AuthWithPasswordHandler handles password-based authentication (login),
// issuing the short-lived access token the Admission Controller and
// Result Ingestor require on every subsequent call (spec.md §4.1).
// Endpoint: POST /auth-with-password
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) AuthWithPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		WriteJsonError(w, resp)
		return
	}

	var req struct {
		Identity string `json:"identity"` // username or email, only mail implemented
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	if req.Identity == "" || req.Password == "" {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	if err := ValidateEmail(req.Identity); err != nil {
		WriteJsonError(w, errorInvalidRequest)
		return
	}

	user, err := a.Db().GetUserByEmail(req.Identity)
	if err != nil || user == nil {
		WriteJsonError(w, errorInvalidCredentials)
		return
	}

	if !crypto.CheckPassword(req.Password, user.Password) {
		WriteJsonError(w, errorInvalidCredentials)
		return
	}

	cfg := a.Config()
	ttl := cfg.Jwt.UserTokenDuration.Duration
	token, err := crypto.IssueAccessToken(user.ID, []byte(cfg.Jwt.UserTokenSecret), ttl)
	if err != nil {
		WriteJsonError(w, errorTokenGeneration)
		return
	}

	writeAuthResponse(w, token, int(ttl.Seconds()), user)
}
