package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminOnly enforces a bearer token on mutating routes. A missing or
// malformed Authorization header yields 403, a present-but-invalid token 401.
func AdminOnly(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no credentials supplied"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		if err := v.Validate(tokenStr); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token invalid"})
			return
		}
		c.Next()
	}
}
