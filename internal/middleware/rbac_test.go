package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/harada-api/internal/models"
)

func runRBAC(t *testing.T, mw gin.HandlerFunc, claims *models.JWTClaims, params gin.Params) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	c.Params = params
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	mw(c)
	return w, !c.IsAborted()
}

func TestRBACRequiresAuthentication(t *testing.T) {
	w, reached := runRBAC(t, RequireRoles(models.RoleAdmin), nil, nil)

	require.False(t, reached)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesAdmitsMatchingRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}

	_, reached := runRBAC(t, RequireRoles(models.RoleAdmin), claims, nil)

	require.True(t, reached)
}

func TestRequireRolesRejectsOtherRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleUser}

	w, reached := runRBAC(t, RequireRoles(models.RoleAdmin), claims, nil)

	require.False(t, reached)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACSelfAdmitsOwner(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleUser}
	params := gin.Params{{Key: "id", Value: "user-1"}}

	_, reached := runRBAC(t, RBAC("ADMIN", "SELF"), claims, params)

	require.True(t, reached)
}

func TestRBACSelfRejectsOtherUser(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleUser}
	params := gin.Params{{Key: "id", Value: "user-2"}}

	w, reached := runRBAC(t, RBAC("ADMIN", "SELF"), claims, params)

	require.False(t, reached)
	require.Equal(t, http.StatusForbidden, w.Code)
}
