package middleware

import "github.com/gin-gonic/gin"

const (
	userIDKey = "userId"
	fileIDKey = "fileId"
)

// UserIDFromContext returns the user id a handler recorded for the request.
func UserIDFromContext(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// FileIDFromContext returns the file id a handler recorded for the request.
func FileIDFromContext(c *gin.Context) string {
	return c.GetString(fileIDKey)
}
