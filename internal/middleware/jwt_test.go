package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-matrix-api/internal/models"
	"github.com/noah-isme/class-matrix-api/internal/service"
)

func buildJWTRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	authService := service.NewAuthService(service.AuthConfig{AccessTokenSecret: secret})
	router.GET("/secure", JWT(authService), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"user": claims.UserID})
	})
	return router
}

func TestJWTMiddlewareAcceptsBearerToken(t *testing.T) {
	router := buildJWTRouter("secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		UserID: "teacher-1",
		Role:   models.RoleTeacher,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "teacher-1")
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	router := buildJWTRouter("secret")

	req, _ := http.NewRequest(http.MethodGet, "/secure", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsMalformedHeader(t *testing.T) {
	router := buildJWTRouter("secret")

	req, _ := http.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsForgedToken(t *testing.T) {
	router := buildJWTRouter("secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{UserID: "teacher-1"})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
