package middleware

import (
	"net/http"

	"frenchdriver/internal/auth"
	"frenchdriver/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}

// Auth requires a valid bearer access token and stores the caller in the context.
func Auth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "Authentification requise.")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid_token", "Token invalide ou expiré.")
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuth records the caller when a valid bearer token is sent and
// lets anonymous requests through.
func OptionalAuth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := auth.BearerToken(c.GetHeader("Authorization")); err == nil {
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(userIDKey, claims.UserID)
				c.Set(userRoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRoles lets through only callers whose role is listed. It must run after Auth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[CurrentUser(c).Role] {
			abort(c, http.StatusForbidden, "forbidden", "Accès réservé aux administrateurs.")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, zero when Auth did not run.
func CurrentUser(c *gin.Context) domain.RequestContext {
	var rc domain.RequestContext
	if v, ok := c.Get(userIDKey); ok {
		rc.UserID, _ = v.(int64)
	}
	if v, ok := c.Get(userRoleKey); ok {
		rc.Role, _ = v.(string)
	}
	return rc
}
