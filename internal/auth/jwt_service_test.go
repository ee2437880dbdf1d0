package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseToken(secret, raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return claims, err
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateAccessToken(42, "ADMIN")
	require.NoError(t, err)

	claims, err := parseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, AccessTokenExpiry.Seconds(), claims.RemainingTTL(time.Now()).Seconds(), 5)
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("other").GenerateAccessToken(1, "")
	require.NoError(t, err)

	_, err = parseToken("test-secret", token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := &JWTService{secret: []byte("test-secret"), expiry: -time.Minute}
	token, err := svc.GenerateAccessToken(1, "")
	require.NoError(t, err)

	_, err = parseToken("test-secret", token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestSubjectFromContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := SubjectFromContext(c)
	assert.Error(t, err)

	c.Set(ContextKey, &jwt.Token{Valid: true, Claims: &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}}})
	sub, err := SubjectFromContext(c)
	require.NoError(t, err)
	assert.Equal(t, "7", sub)
}
