package handler

import (
	"log/slog"
	"time"

	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/gin-gonic/gin"
)

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := logger.WithGroup("http").With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(log.NewContext(c.Request.Context(), reqLog))

		c.Next()

		attrs := []any{"status", c.Writer.Status(), "duration", time.Since(start).String()}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			reqLog.Error("request failed", append(attrs, "error", errs.String())...)
			return
		}
		reqLog.Info("handled request", attrs...)
	}
}
