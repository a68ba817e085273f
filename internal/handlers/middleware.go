package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey        = "userId"
	accessTokenQuery = "access_token"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}
	h.authenticate(c, header)
}

// streamAuthMiddleware accepts the bearer header or the access_token query parameter.
func (h *Handler) streamAuthMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if tok := c.Query(accessTokenQuery); tok != "" {
			header = "Bearer " + tok
		}
	}
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header or access_token",
		})
		return
	}
	h.authenticate(c, header)
}

func (h *Handler) authenticate(c *gin.Context, header string) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	userId, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(userIDKey, userId)
	c.Next()
}

// userID returns the id set by the auth middleware.
func userID(c *gin.Context) int {
	return c.GetInt(userIDKey)
}
