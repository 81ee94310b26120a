package auth

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName はセッション ID を保持する Cookie 名です。
	SessionCookieName = "tp_session"

	sessionKeyUserID     = "user_id"
	sessionKeyUsername   = "username"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"

	contextSessionKey = "auth.session"
)

// Session はリクエストごとに一度だけ解決されるログイン状態です。
// 値型で受け渡し、ハンドラー側で書き換えることはありません。
type Session struct {
	ID         string
	UserID     string
	Username   string
	IssuedAt   time.Time
	LastActive time.Time
}

// CurrentSession は ResolveSession が解決したセッションを返します。
func CurrentSession(c *gin.Context) (Session, bool) {
	v, ok := c.Get(contextSessionKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

// CookieSettings はセッション Cookie の属性です。
type CookieSettings struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// Options は有効なセッション用の Cookie 属性を返します。
func (s CookieSettings) Options() sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   int(s.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	}
}

// expired は Cookie を即時失効させる属性を返します。
// サーバー側ストアではこの属性で保存するとセッションレコードが削除されます。
func (s CookieSettings) expired() sessions.Options {
	opts := s.Options()
	opts.MaxAge = -1
	return opts
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
