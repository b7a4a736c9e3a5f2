package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

const (
	RefreshTokenHeader = "X-Refresh-Token"
	accessTokenKey     = "access_token"
)

// RequireBearer rejects requests without a bearer token and stores the token
// pair for handlers. The token is verified by the resume API, not here.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		c.Set(accessTokenKey, &oauth2.Token{
			AccessToken:  token,
			TokenType:    "Bearer",
			RefreshToken: strings.TrimSpace(c.GetHeader(RefreshTokenHeader)),
		})
		c.Next()
	}
}

// Credentials returns the token pair stored by RequireBearer.
func Credentials(c *gin.Context) *oauth2.Token {
	if v, ok := c.Get(accessTokenKey); ok {
		if tok, ok := v.(*oauth2.Token); ok {
			return tok
		}
	}
	return nil
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
