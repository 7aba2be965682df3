package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	kindAccess = "access"
	kindJob    = "job"

	tokenLeeway = 60 * time.Second
)

var (
	// ErrTokenMalformed is returned when the token string cannot be parsed at all.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenBadSignature is returned when the signature does not match the secret.
	ErrTokenBadSignature = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenWrongKind is returned when a token is presented to the wrong Verify* function.
	ErrTokenWrongKind = errors.New("token wrong kind")
)

// AccessClaims identifies the caller of an authenticated API request.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// JobClaims is a capability token scoped to a single job: presenting it
// proves the caller may act on JobID (submit results, check progress) and
// nothing else (spec.md §4.1).
type JobClaims struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// translateTokenError maps the jwt library's errors onto the Token
// Service's own sentinels, the same way translateJWTError does for the
// user-auth tokens.
func translateTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// IssueAccessToken signs a short-lived bearer token identifying userID,
// for use by the Admission Controller and job/result handlers.
func IssueAccessToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) < MinKeyLength {
		return "", ErrJwtInvalidSecretLength
	}

	now := time.Now()
	claims := AccessClaims{
		UserID: userID,
		Kind:   kindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccessToken validates signature, expiry and kind, returning the
// parsed claims on success.
func VerifyAccessToken(token string, secret []byte) (AccessClaims, error) {
	var claims AccessClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(tokenLeeway),
	)

	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrJwtInvalidSigningMethod, t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return claims, translateTokenError(err)
	}
	if claims.Kind != kindAccess {
		return claims, ErrTokenWrongKind
	}
	return claims, nil
}

// IssueJobToken signs a capability token scoped to jobID, handed to the
// caller in the SubmitJob response for later progress/result calls.
func IssueJobToken(jobID, userID string, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) < MinKeyLength {
		return "", ErrJwtInvalidSecretLength
	}

	now := time.Now()
	claims := JobClaims{
		JobID:  jobID,
		UserID: userID,
		Kind:   kindJob,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyJobToken validates signature, expiry and kind against the
// job-token secret. A token correctly signed by the access-token secret
// still fails here because Kind won't be "job" (defense in depth: the
// two secrets differ, so cross-presentation normally fails signature
// verification first, but the kind check guards the case where a caller
// mistakenly reuses one secret for both families).
func VerifyJobToken(token string, secret []byte) (JobClaims, error) {
	var claims JobClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(tokenLeeway),
	)

	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrJwtInvalidSigningMethod, t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return claims, translateTokenError(err)
	}
	if claims.Kind != kindJob {
		return claims, ErrTokenWrongKind
	}
	return claims, nil
}
