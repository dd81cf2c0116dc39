package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-matrix-api/internal/models"
)

func signTestToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret"})

	signed := signTestToken(t, "secret", &models.JWTClaims{
		UserID: "teacher-1",
		Role:   models.RoleTeacher,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret"})

	signed := signTestToken(t, "other", &models.JWTClaims{UserID: "teacher-1"})

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret"})

	signed := signTestToken(t, "secret", &models.JWTClaims{
		UserID: "teacher-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestValidateTokenIssuerMismatch(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "identity-service"})

	signed := signTestToken(t, "secret", &models.JWTClaims{
		UserID: "teacher-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}
