package auth

import (
	"errors"
	"net/http"

	"github.com/yourusername/travel-packages/internal/apperr"
)

var (
	// ErrConflict はメールアドレスまたはユーザー名が既に登録済みであることを表します。
	ErrConflict = apperr.New(http.StatusBadRequest, "CONFLICT", "Email or username already exists")

	// ErrInvalidCredentials はログイン失敗です。ユーザーが存在しない場合と
	// パスワード不一致の場合を区別しません。
	ErrInvalidCredentials = apperr.New(http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid username or password")

	// ErrUnauthorized は有効なセッションがないことを表します。
	ErrUnauthorized = apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")

	// ErrTooManyAttempts はログイン試行回数の上限に達したことを表します。
	ErrTooManyAttempts = apperr.New(http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many login attempts, please try again later")

	// ErrUnsupportedMediaType は JSON 以外のリクエストボディを表します。
	ErrUnsupportedMediaType = apperr.New(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")

	// ErrSessionStore はセッションストアへの保存・削除に失敗したことを表します。
	ErrSessionStore = apperr.New(http.StatusInternalServerError, "SESSION_STORE_ERROR", "Something went wrong!")

	// ErrUserNotFound は UserStore がユーザーを見つけられなかったことを表します。
	// サービス層で ErrInvalidCredentials に変換され、クライアントには返りません。
	ErrUserNotFound = errors.New("user not found")
)
