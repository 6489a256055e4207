// Package auth decodes the backend's bearer tokens locally.
//
// Signatures are never verified here: the front-end has no access to the
// backend's signing key. Expiry checks built on Decode trust the local clock
// and only avoid rendering protected pages for a token the backend would
// reject anyway. They are not a security boundary.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token has no exp claim")

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses the token payload without verifying its signature.
func Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, ErrNoExpiry
	}
	return claims, nil
}

// Expired reports whether the token's exp is at or before now. Tokens that
// cannot be decoded, or carry no exp, count as expired.
func Expired(tokenString string, now time.Time) bool {
	claims, err := Decode(tokenString)
	if err != nil {
		return true
	}
	return !claims.ExpiresAt.After(now)
}

// NewToken mints an HS256 token shaped like the backend's. Used by local
// tooling and tests; production tokens always come from the backend.
func NewToken(sub, email, role, secret string, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
