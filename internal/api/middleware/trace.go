package middleware

import (
	"EdVix/internal/pkg/logger"
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDHeader  = "X-Trace-ID"
	maxTraceIDSize = 64
)

// TraceMiddleware 透传上游的 X-Trace-ID，缺失或过长时重新生成
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceIDHeader)
		if traceID == "" || len(traceID) > maxTraceIDSize {
			traceID = uuid.NewString()
		}

		c.Set(logger.TraceIDKey, traceID)
		ctx := context.WithValue(c.Request.Context(), logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(traceIDHeader, traceID)
		c.Next()
	}
}
