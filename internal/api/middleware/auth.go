package middleware

import (
	"net/http"
	"strings"

	"chat-realtime/internal/models"
	"chat-realtime/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextEmail    = "email"
)

// TokenParser verifies access tokens.
type TokenParser interface {
	Parse(token string) (*services.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenParser
}

func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth accepts a bearer token from the Authorization header.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		am.authenticate(c, bearerToken(c))
	}
}

// RequireSocketAuth also accepts the token as a "token" query parameter,
// since browsers cannot set headers on a websocket handshake.
func (am *AuthMiddleware) RequireSocketAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = bearerToken(c)
		}
		am.authenticate(c, token)
	}
}

func (am *AuthMiddleware) authenticate(c *gin.Context, token string) {
	if token == "" {
		abortUnauthorized(c, "authorization token is required")
		return
	}

	claims, err := am.tokens.Parse(token)
	if err != nil {
		abortUnauthorized(c, "invalid or expired token")
		return
	}

	c.Set(ContextUserID, claims.UserIDString())
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextEmail, claims.Email)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func abortUnauthorized(c *gin.Context, details string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: "Unauthorized",
		Details: details,
	})
}

// GetUserID returns the authenticated user id set by RequireAuth.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
