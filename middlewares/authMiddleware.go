package middlewares

import (
	"net/http"
	"strings"
	"time"

	"lostfound-bot/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminKey is the context key holding the authenticated admin username.
const AdminKey = "admin"

// AdminAuth accepts requests carrying an admin bearer token that is valid at
// now().
func AdminAuth(secret string, now func() time.Time, log logrus.FieldLogger) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		username, err := utils.ParseAdminToken(secret, tokenString, now())
		if err != nil {
			log.WithError(err).Warn("admin token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			return
		}

		c.Set(AdminKey, username)
		c.Next()
	}
}
