package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/pkg/jwtutil"
	"pdfchat/internal/transport/http/response"
)

const ContextSessionIDKey = "session_id"

// RequireSession resolves the bearer token to a session id.
func RequireSession(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Next()
	}
}

func SessionID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextSessionIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
