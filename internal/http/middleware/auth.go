package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/services"
)

type AuthMiddleware struct {
	log      *logger.Logger
	verifier services.IdentityVerifier
}

func NewAuthMiddleware(log *logger.Logger, verifier services.IdentityVerifier) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, verifier: verifier}
}

// RequireAuth rejects requests without a valid bearer token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		viewer, err := am.verifier.Verify(c.Request.Context(), tokenString)
		if err != nil || !viewer.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithViewer(c.Request.Context(), viewer))
		c.Next()
	}
}

// OptionalAuth attaches a viewer when a valid token is present. A bad token is treated as
// anonymous so public share links keep working.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractBearer(c); tokenString != "" {
			viewer, err := am.verifier.Verify(c.Request.Context(), tokenString)
			if err == nil {
				c.Request = c.Request.WithContext(ctxutil.WithViewer(c.Request.Context(), viewer))
			} else {
				am.log.Debug("Ignoring invalid token on public route", "path", c.FullPath())
			}
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
