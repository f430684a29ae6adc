package middleware

import (
	"net/http"
	"strings"

	"reservio/internal/shared/config"
	"reservio/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// ContextKeyRequester is the gin context key holding the authenticated
// requester identity.
const ContextKeyRequester = "requester"

// JWTAuth creates a JWT authentication middleware
func JWTAuth() gin.HandlerFunc {
	return JWTAuthWithConfig(config.Load())
}

// JWTAuthWithConfig creates a JWT authentication middleware with config.
// Tokens only carry identity here; authorization decisions live outside
// this service.
func JWTAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, ok := requesterFromHeader(c, cfg)
		if !ok {
			c.Abort()
			return
		}
		c.Set(ContextKeyRequester, requester)
		c.Next()
	}
}

// OptionalAuth validates the token if present but lets anonymous
// requests through (used on read-only availability endpoints).
func OptionalAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if requester, ok := parseBearer(c.GetHeader("Authorization"), cfg); ok {
			c.Set(ContextKeyRequester, requester)
		}
		c.Next()
	}
}

func requesterFromHeader(c *gin.Context, cfg *config.Config) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Error(c, http.StatusUnauthorized, "Authorization header is required")
		return "", false
	}

	requester, ok := parseBearer(authHeader, cfg)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		return "", false
	}
	return requester, true
}

func parseBearer(authHeader string, cfg *config.Config) (string, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", false
	}
	return sub, true
}

// Requester returns the authenticated requester identity from the gin
// context, or "" when the request is anonymous.
func Requester(c *gin.Context) string {
	value, exists := c.Get(ContextKeyRequester)
	if !exists {
		return ""
	}
	requester, _ := value.(string)
	return requester
}
