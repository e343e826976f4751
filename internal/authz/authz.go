// Package authz holds the capability check used by both middleware and
// services, independent of the transport that supplied the caller identity.
package authz

import "github.com/shikshalink/attendance-api/internal/models"

// Allowed reports whether the caller may act with the required role inside
// the given school. Super admins pass for every tenant; everyone else must
// belong to the tenant and hold the exact role.
func Allowed(claims *models.JWTClaims, schoolID string, required models.UserRole) bool {
	if claims == nil {
		return false
	}
	if claims.Role == models.RoleSuperAdmin {
		return true
	}
	if schoolID != "" && claims.SchoolID != schoolID {
		return false
	}
	return claims.Role == required
}
