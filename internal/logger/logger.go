// Package logger は zerolog.Logger の薄いラッパーを提供します。
//
// Logger は zerolog.Logger を埋め込んでいるため、Info / Error などの
// zerolog の API をそのまま利用できます。リクエスト単位のロガーは
// FromContext で取り出します。
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger は zerolog.Logger のラッパーです。
type Logger struct {
	zerolog.Logger
}

// New は role フィールド付きの JSON ロガーを作成します。
// level が解釈できない場合は info になります。
func New(role, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Str("role", role).
		Timestamp().
		Logger()

	return &Logger{l}
}

// Nop は何も出力しないロガーを返します。テスト用です。
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// WithStr は文字列フィールドを追加した子ロガーを返します。
func (l *Logger) WithStr(key, value string) *Logger {
	return &Logger{l.With().Str(key, value).Logger()}
}

// FromContext はコンテキストに紐づいたロガーを返します。
// 紐づいていない場合は zerolog のデフォルト（無効）ロガーになります。
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}

// IntoContext はロガーをコンテキストに格納します。
func (l *Logger) IntoContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}
