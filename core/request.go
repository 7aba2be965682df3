package core

import (
	"fmt"
	"net"
	"net/http"
	"net/mail"
	"strings"
)

// GetClientIP returns the request's originating address, preferring the
// configured reverse-proxy header (e.g. X-Forwarded-For) when set, falling
// back to r.RemoteAddr. When the proxy header carries a comma-separated
// chain, the first (left-most, client-supplied) entry is used.
func (a *App) GetClientIP(r *http.Request) string {
	proxyHeader := a.Config().Server.ClientIpProxyHeader
	if proxyHeader != "" {
		if v := r.Header.Get(proxyHeader); v != "" {
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			return strings.TrimSpace(v)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ValidateEmail checks if an email address is valid according to RFC 5322
// Returns nil if valid, or an error describing why the email is invalid
func ValidateEmail(email string) error {
	_, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

