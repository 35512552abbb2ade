package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/types"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		requestID := ctx.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Header(RequestIDHeader, requestID)

		ctx.Next()

		args := []any{
			"request_id", requestID,
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"latency", time.Since(start),
		}

		if user, ok := ctx.Get(types.ContextUserKey); ok {
			if p, ok := user.(types.Principal); ok {
				args = append(args, "user_id", p.ID)
			}
		}

		switch status := ctx.Writer.Status(); {
		case status >= 500:
			logger.Error(ctx.Request.Context(), "request", args...)
		case status >= 400:
			logger.Warn(ctx.Request.Context(), "request", args...)
		default:
			logger.Info(ctx.Request.Context(), "request", args...)
		}
	}
}
