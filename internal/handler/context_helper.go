package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shikshalink/attendance-api/internal/middleware"
	"github.com/shikshalink/attendance-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}
