package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusq/helpdesk-api/internal/middleware"
	"github.com/campusq/helpdesk-api/internal/models"
)

// currentClaims extracts the authenticated user's claims from the context.
func currentClaims(c *gin.Context) *models.JWTClaims {
	if v, exists := c.Get(middleware.ContextUserKey); exists {
		if claims, ok := v.(*models.JWTClaims); ok {
			return claims
		}
	}
	return nil
}

// studentScope returns the studentId the caller may act for. Admins may pass
// an explicit studentId query parameter; students are pinned to their own.
func studentScope(c *gin.Context) string {
	claims := currentClaims(c)
	if claims == nil {
		return ""
	}
	if claims.Role == models.RoleAdmin {
		return c.Query("studentId")
	}
	return claims.StudentID
}
