package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/harada-api/internal/models"
	"github.com/noah-isme/harada-api/internal/service"
)

const testSecret = "middleware-test-secret"

func newTestAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: testSecret,
		AccessTokenExpiry: 15 * time.Minute,
	})
}

func signToken(t *testing.T, userID string, role models.UserRole, expiresAt time.Time) string {
	t.Helper()

	claims := &models.JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func runMiddleware(t *testing.T, mw gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, bool, *models.JWTClaims) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}

	reached := false
	var captured *models.JWTClaims
	mw(c)
	if !c.IsAborted() {
		reached = true
		if v, ok := c.Get(ContextUserKey); ok {
			captured = v.(*models.JWTClaims)
		}
	}
	return w, reached, captured
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	w, reached, _ := runMiddleware(t, JWT(newTestAuthService()), "")

	require.False(t, reached)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	w, reached, _ := runMiddleware(t, JWT(newTestAuthService()), "Token abc")

	require.False(t, reached)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	token := signToken(t, "user-1", models.RoleUser, time.Now().Add(-time.Minute))

	w, reached, _ := runMiddleware(t, JWT(newTestAuthService()), "Bearer "+token)

	require.False(t, reached)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAttachesClaims(t *testing.T) {
	token := signToken(t, "user-1", models.RoleUser, time.Now().Add(time.Hour))

	_, reached, claims := runMiddleware(t, JWT(newTestAuthService()), "Bearer "+token)

	require.True(t, reached)
	require.NotNil(t, claims)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleUser, claims.Role)
}

func TestOptionalJWTPassesWithoutHeader(t *testing.T) {
	_, reached, claims := runMiddleware(t, OptionalJWT(newTestAuthService()), "")

	require.True(t, reached)
	require.Nil(t, claims)
}

func TestOptionalJWTIgnoresInvalidToken(t *testing.T) {
	_, reached, claims := runMiddleware(t, OptionalJWT(newTestAuthService()), "Bearer not-a-token")

	require.True(t, reached)
	require.Nil(t, claims)
}

func TestOptionalJWTAttachesValidClaims(t *testing.T) {
	token := signToken(t, "user-2", models.RoleAdmin, time.Now().Add(time.Hour))

	_, reached, claims := runMiddleware(t, OptionalJWT(newTestAuthService()), "Bearer "+token)

	require.True(t, reached)
	require.NotNil(t, claims)
	require.Equal(t, "user-2", claims.UserID)
}
