// Package token issues and verifies the signed session tokens that carry a
// user identity between requests. Tokens are HS256 JWTs whose subject is the
// user id; there is no server-side session state behind them.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/launchbase/accounts-api/internal/core/domain"
)

const defaultTTL = 7 * 24 * time.Hour

// Issuer signs and validates session tokens with a process-wide secret.
// Rotating the secret invalidates every outstanding token.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime, which also bounds the session
// cookie's expiry.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue produces a signed token embedding the user id and an expiry.
func (i *Issuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify checks signature and expiry and returns the embedded user id.
// Bad signature, malformed structure, and past expiry all collapse into
// domain.ErrInvalidToken so callers cannot leak which one applied.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
