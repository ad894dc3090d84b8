package api

import (
	"time"

	"palm-rag/internal/models"
	"palm-rag/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 是请求追踪 ID 所使用的 Header。
const RequestIDHeader = "X-Request-ID"

const loggerKey = "logger"

// RequestLogger 为每个请求分配 trace id，并在请求结束后记录一条结构化日志。
func RequestLogger(base *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader(RequestIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Header(RequestIDHeader, traceID)

		log := base.WithTrace(traceID)
		c.Set(loggerKey, log)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		entry := log.WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       path,
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     c.Writer.Status(),
			LatencyMs:  time.Since(start).Milliseconds(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

// requestLogger 返回当前请求的 Logger。
func requestLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return fallback
}
