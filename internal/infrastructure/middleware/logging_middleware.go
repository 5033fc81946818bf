package middleware

import (
	"context"
	"time"

	"mediagate/internal/core/domain"
	"mediagate/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLoggingMiddleware tags every request with a request id and
// emits one completion line carrying the resolved principal.
func RequestLoggingMiddleware(zapLogger *zap.Logger) gin.HandlerFunc {
	contextLogger := logger.NewContextLogger(zapLogger)

	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		ctx := context.WithValue(c.Request.Context(), "request_id", requestID)
		if principal := PrincipalFromContext(c); principal != domain.AnonymousPrincipal {
			ctx = context.WithValue(ctx, "principal_id", string(principal))
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		contextLogger.WithContext(ctx).Sugar().Infow("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
