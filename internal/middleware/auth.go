package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/recipeshare/backend/internal/models"
)

const currentUserKey = "current_user"

// UserResolver resolves a bearer token to the acting user.
type UserResolver interface {
	UserFromToken(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth validates the Authorization header and stores the acting
// user in the request context. Requests without a valid token get 401.
func RequireAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			c.Abort()
			return
		}

		user, err := resolver.UserFromToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// OptionalAuth resolves the acting user when a valid token is present and
// lets anonymous requests through untouched.
func OptionalAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := resolver.UserFromToken(c.Request.Context(), token); err == nil {
				c.Set(currentUserKey, user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the acting user set by the auth middleware, or nil
// for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
