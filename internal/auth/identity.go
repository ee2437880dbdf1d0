package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ContextKey is where echo-jwt stores the verified token.
const ContextKey = "user"

var errNoToken = errors.New("no verified token in context")

// TokenFromContext returns the claims verified by the JWT middleware.
func TokenFromContext(c echo.Context) (*Claims, error) {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return nil, errNoToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errNoToken
	}
	return claims, nil
}

// SubjectFromContext returns the raw caller identity (the token subject).
func SubjectFromContext(c echo.Context) (string, error) {
	claims, err := TokenFromContext(c)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// RemainingTTL returns how long the token stays valid.
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return AccessTokenExpiry
	}
	return c.ExpiresAt.Sub(now)
}
