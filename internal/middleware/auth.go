// Package middleware holds the gin middleware chain: auth, request logging
// and metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/requestdata"
	"github.com/yungbote/matchpoint-backend/internal/services"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

type AuthMiddleware struct {
	auth services.AuthService
	log  *logger.Logger
}

func NewAuthMiddleware(auth services.AuthService, baseLog *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
		log:  baseLog.With("middleware", "AuthMiddleware"),
	}
}

// RequireAuth validates the bearer token and stashes the caller's identity in
// the request context for downstream handlers.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := am.auth.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		rd := &requestdata.RequestData{
			TokenString: tokenString,
			UserID:      claims.UserID,
			UID:         claims.UID,
			Role:        claims.Role,
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// RequireAdmin gates a route on the Admin role. Must run after RequireAuth.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if rd.Role != types.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
