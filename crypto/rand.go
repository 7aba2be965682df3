package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// generateSecureToken creates a cryptographically secure random token
// TODO
func GenerateSecureToken(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}

// AlphanumericAlphabet is the character set used by RandomString.
const AlphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns a cryptographically random string of length n drawn
// from alphabet. Used to generate default JWT secrets at startup.
func RandomString(n int, alphabet string) string {
	b := make([]byte, n)
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return ""
	}
	for i, v := range raw {
		b[i] = alphabet[int(v)%len(alphabet)]
	}
	return string(b)
}
