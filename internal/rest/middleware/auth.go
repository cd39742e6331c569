package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/flexisub/flexisub/internal/auth"
	"github.com/flexisub/flexisub/internal/config"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware validates the bearer token in the Authorization header
// and sets the caller's user ID and role in the request context.
func AuthenticateMiddleware(provider auth.Provider, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortWithError(c, ierr.NewError("missing authorization header").
				WithHint("Unauthorized").
				Mark(ierr.ErrUnauthorized))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, ierr.NewError("invalid authorization header format").
				WithHint("Invalid authorization header format").
				Mark(ierr.ErrUnauthorized))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := provider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			abortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, types.CtxUserID, claims.UserID)
		ctx = context.WithValue(ctx, types.CtxUserRole, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CronAuthMiddleware guards the scheduler endpoints with the configured API key.
// The endpoints are disabled when no key is configured.
func CronAuthMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Cron.APIKey == "" {
			logger.Warnw("cron endpoint called without a configured api key", "path", c.FullPath())
			abortWithError(c, ierr.NewError("cron api key not configured").
				WithHint("Scheduler endpoints are disabled").
				Mark(ierr.ErrPermissionDenied))
			return
		}

		key := c.GetHeader(cfg.Cron.Header)
		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Cron.APIKey)) != 1 {
			abortWithError(c, ierr.NewError("invalid cron api key").
				WithHint("Invalid API key").
				Mark(ierr.ErrUnauthorized))
			return
		}

		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}
