package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// decodeExpiry reads the exp claim without verifying the signature. The zero
// time means the token is malformed or carries no exp, and is treated as
// expired.
func decodeExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
