package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin runs after Authenticate and lets only admins through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ctxRole); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "not authorized, no token",
			})
			return
		}
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "admin access required",
			})
			return
		}

		c.Next()
	}
}
