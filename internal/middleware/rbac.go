package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/shikshalink/attendance-api/internal/authz"
	"github.com/shikshalink/attendance-api/internal/models"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
	"github.com/shikshalink/attendance-api/pkg/response"
)

// RequireRole enforces that the caller holds one of the given roles within
// the school named by the :schoolId route parameter. Super admins always
// pass.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		schoolID := c.Param("schoolId")
		for _, role := range roles {
			if authz.Allowed(claims, schoolID, role) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrPermissionDenied)
		c.Abort()
	}
}
