// Package apperr は API エラーの型と、エラーを HTTP レスポンスへ変換する
// 終端ミドルウェアを提供します。
//
// ハンドラーは c.Error(err) でエラーを記録して処理を中断するだけにし、
// レスポンスの組み立ては Middleware に一本化します。
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/travel-packages/internal/logger"
)

const genericMessage = "Something went wrong!"

// Error はクライアントへ返すステータス・コード・メッセージを持つエラーです。
type Error struct {
	Status  int
	Code    string
	Message string
}

// New は Error を作成します。
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// InvalidInput はリクエスト内容が不正な場合の 400 エラーを返します。
func InvalidInput(message string) *Error {
	return New(http.StatusBadRequest, "INVALID_INPUT", message)
}

// Middleware は記録されたエラーをレスポンスに変換します。
// ハンドラーが既に書き込み済みの場合は何もしません。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Respond(c, c.Errors.Last().Err)
	}
}

// Respond はエラー種別に応じたステータスで JSON を返します。
// 5xx の場合は原因をログに残し、クライアントには汎用メッセージのみ返します。
func Respond(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context())

	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("code", apiErr.Code).Msg("request failed")
		}
		c.AbortWithStatusJSON(apiErr.Status, gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "request was canceled",
		})
	default:
		log.Error().Err(err).Msg("unexpected error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": genericMessage,
		})
	}
}

// Recovery は panic を 500 レスポンスに変換します。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": genericMessage,
		})
	})
}
