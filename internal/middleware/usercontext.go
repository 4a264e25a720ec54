package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "drachma/internal/errors"
	"drachma/internal/uuid"
)

// userIDHeader carries the authenticated user's ID, set by the gateway in
// front of this service. Authentication itself happens upstream.
const userIDHeader = "X-User-ID"

// UserContext returns a Gin middleware that requires the user ID header on
// every request and stores it on the context for handlers.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" || !uuid.IsValid(userID) {
			c.AbortWithStatusJSON(apperrors.ErrUnauthorized.StatusCode, gin.H{
				"error": gin.H{
					"code":    apperrors.ErrUnauthorized.Code,
					"message": apperrors.ErrUnauthorized.Message,
				},
			})
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}
