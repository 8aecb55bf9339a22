// Package auth guards routes with bearer tokens issued by auth.Provider.
package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventmaster-api/internal/domain/account"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/response"
)

const (
	userKey  = "auth_user"
	tokenKey = "auth_token"
)

// TokenResolver resolves a bearer token to its user.
type TokenResolver interface {
	CurrentUser(ctx context.Context, token string) (*account.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Require rejects requests without a valid bearer token.
func Require(resolver TokenResolver) gin.HandlerFunc {
	log := logger.HTTP()

	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.UnauthorizedError(c, "missing bearer token")
			c.Abort()
			return
		}

		user, err := resolver.CurrentUser(c.Request.Context(), token)
		if err != nil {
			log.Debug("Rejected bearer token", "path", c.Request.URL.Path, "error", err)
			response.FromError(c, err)
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// CurrentUser returns the user set by Require, or nil.
func CurrentUser(c *gin.Context) *account.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*account.User)
	return user
}

// Token returns the bearer token accepted by Require.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}
