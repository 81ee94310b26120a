package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/travel-packages/internal/logger"
)

const requestIDHeader = "X-Request-Id"

// requestLogger はリクエストごとに request_id 付きの子ロガーをコンテキストへ格納し、
// 処理後にアクセスログを 1 行出力します。
// クライアントが X-Request-Id を送ってきた場合はその値を引き継ぎます。
func requestLogger(base *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqLog := base.WithStr("request_id", requestID)
		c.Request = c.Request.WithContext(reqLog.IntoContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := reqLog.Info()
		if status >= 500 {
			event = reqLog.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("request")
	}
}
