package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alfanzaky/proofanchor/internal/domain"
	authpkg "github.com/alfanzaky/proofanchor/pkg/auth"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/xresponse"
)

const claimsContextKey = "auth_claims"

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, anchorHandler *AnchorHandler, authService domain.AuthService) {
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(authService))
	{
		anchors := v1.Group("/anchors")
		anchors.POST("", requireScope(domain.ScopeAnchorsWrite), anchorHandler.Submit)
		anchors.GET("/:id", requireScope(domain.ScopeAnchorsRead), anchorHandler.Get)
		anchors.POST("/:id/enqueue", requireScope(domain.ScopeAnchorsWrite), anchorHandler.Enqueue)

		v1.GET("/stats", requireScope(domain.ScopeAnchorsRead), anchorHandler.Stats)
	}

	logger.Info("API routes configured successfully")
}

// authMiddleware validates the bearer service token and stores its claims
func authMiddleware(authService domain.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil {
			xresponse.InternalServerError(c, "Auth service not available")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			xresponse.Unauthorized(c, "Authorization header with Bearer token required")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			xresponse.Unauthorized(c, "Token is empty")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, authpkg.ErrExpiredToken):
				xresponse.TokenExpired(c)
			default:
				xresponse.Unauthorized(c, "Invalid token")
			}
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)

		logger.Debug("Service authenticated",
			logger.String("subject", claims.Subject),
			logger.String("scopes", strings.Join(claims.Scopes, " ")),
			logger.String("token_ttl", time.Until(claims.ExpiresAt).String()),
		)

		c.Next()
	}
}

// requireScope rejects tokens that do not grant scope
func requireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromContext(c)
		if !ok {
			xresponse.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		if !claims.HasScope(scope) {
			logger.Warn("Access denied - missing scope",
				logger.String("subject", claims.Subject),
				logger.String("required_scope", scope),
				logger.String("ip", c.ClientIP()),
			)
			xresponse.Forbidden(c, "Token lacks scope "+scope)
			c.Abort()
			return
		}

		c.Next()
	}
}

func claimsFromContext(c *gin.Context) (*domain.AuthClaims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*domain.AuthClaims)
	return claims, ok && claims != nil
}

// RecoveryMiddleware turns handler panics into a 500 response
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			logger.String("error", fmt.Sprintf("%v", recovered)),
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
		)

		xresponse.InternalServerError(c, "Internal server error")
		c.Abort()
	})
}
