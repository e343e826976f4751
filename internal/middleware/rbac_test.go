package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/shikshalink/attendance-api/internal/models"
)

func rbacTestContext(claims *models.JWTClaims, schoolID string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "schoolId", Value: schoolID}}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	return c, w
}

func TestRequireRoleDeniesAnonymous(t *testing.T) {
	c, w := rbacTestContext(nil, "SCH1")
	RequireRole(models.RoleAdmin)(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.True(t, c.IsAborted())
}

func TestRequireRolePassesMatchingTenantRole(t *testing.T) {
	c, w := rbacTestContext(&models.JWTClaims{SchoolID: "SCH1", Role: models.RoleTeacher}, "SCH1")
	RequireRole(models.RoleAdmin, models.RoleTeacher)(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, c.IsAborted())
}

func TestRequireRoleDeniesWrongTenant(t *testing.T) {
	c, w := rbacTestContext(&models.JWTClaims{SchoolID: "SCH2", Role: models.RoleAdmin}, "SCH1")
	RequireRole(models.RoleAdmin)(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleSuperAdminCrossesTenants(t *testing.T) {
	c, w := rbacTestContext(&models.JWTClaims{SchoolID: "HQ", Role: models.RoleSuperAdmin}, "SCH1")
	RequireRole(models.RoleAdmin)(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, c.IsAborted())
}
