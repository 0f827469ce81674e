package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

// TraceMiddleware 沿用调用方传入的 X-Trace-ID，否则生成新的 trace_id，并写入请求 ctx 与响应头
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))

		c.Header(TraceHeader, traceID)
		c.Next()
	}
}
