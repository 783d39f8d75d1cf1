package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tesseract-hub/sales-analytics-service/internal/auth"
)

const (
	userIDKey        = "user_id"
	userEmailKey     = "user_email"
	authenticatedKey = "authenticated"
)

// OptionalAuth resolves the caller from a bearer token when one is present.
// It never rejects a request: without a valid token the caller is anonymous.
func OptionalAuth(authenticator *auth.TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := authenticator.Authenticate(auth.BearerToken(c.GetHeader("Authorization")))

		c.Set(authenticatedKey, identity.Authenticated)
		if identity.Authenticated {
			c.Set(userIDKey, identity.UserID)
			if identity.Email != "" {
				c.Set(userEmailKey, identity.Email)
			}
		}

		c.Next()
	}
}

// GetUserID returns the authenticated user id, or "" for anonymous callers
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// IsAuthenticated reports whether OptionalAuth accepted the caller's token
func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(authenticatedKey)
}
