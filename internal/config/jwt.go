package config

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// checkJWT inspects the JWT credential without verifying its signature (only
// the platform can do that) so that a malformed or expired credential fails
// before the token exchange is attempted.
func checkJWT(token string, now time.Time) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return &Error{Key: KeyJWT, Err: fmt.Errorf("malformed JWT: %w", err)}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return &Error{Key: KeyJWT, Err: fmt.Errorf("invalid exp claim: %w", err)}
	}
	if exp != nil && !exp.After(now) {
		return &Error{Key: KeyJWT, Err: fmt.Errorf("JWT expired at %s", exp.UTC().Format(time.RFC3339))}
	}
	return nil
}
