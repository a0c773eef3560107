package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey  = "claims"
	SubjectKey = "uid"
	EmailKey   = "email"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier.
// The claims map, the subject (sub, or user_id for Firebase tokens) and the email are stored
// in the context.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(SubjectKey, subjectOf(claims))
		if email, ok := claims["email"].(string); ok {
			c.Set(EmailKey, email)
		}
		c.Next()
	}
}

// AdminOnly rejects authenticated callers whose email is not listed. It must
// run after AuthMiddleware.
func AdminOnly(emails []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(emails))
	for _, e := range emails {
		allowed[strings.ToLower(e)] = true
	}
	return func(c *gin.Context) {
		if !allowed[strings.ToLower(c.GetString(EmailKey))] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func subjectOf(claims map[string]interface{}) string {
	for _, k := range []string{"sub", "user_id", "uid"} {
		if s, ok := claims[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// limitKey picks the rate limit key: the authenticated subject when present,
// otherwise the client IP.
func limitKey(c *gin.Context) string {
	if v, ok := c.Get(ClaimsKey); ok {
		if cm, ok := v.(map[string]interface{}); ok {
			if sub := subjectOf(cm); sub != "" {
				return "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
