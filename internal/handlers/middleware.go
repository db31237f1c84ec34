package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userId"

	// accessTokenParam carries the token for websocket upgrades, where browsers
	// cannot set headers.
	accessTokenParam = "access_token"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := ""
	switch {
	case header != "":
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization header format",
			})
			return
		}
		token = parts[1]
	case c.Query(accessTokenParam) != "":
		token = c.Query(accessTokenParam)
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	userId, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUserID, userId)
	c.Next()
}

// userID returns the id stored by userIdMiddleware.
func userID(c *gin.Context) int {
	return c.GetInt(ctxUserID)
}
