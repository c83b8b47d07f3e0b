package auth

import "github.com/gin-gonic/gin"

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetUserName returns the display name carried by the token, if any.
func GetUserName(c *gin.Context) string {
	return c.GetString(userNameKey)
}

// SetUser records the authenticated caller on the request context.
func SetUser(c *gin.Context, userID, name string) {
	c.Set(userIDKey, userID)
	c.Set(userNameKey, name)
}
