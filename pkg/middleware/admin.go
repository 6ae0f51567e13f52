package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/models"
)

// RequireAdmin middleware ensures only admin users can access the endpoint
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRole(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
