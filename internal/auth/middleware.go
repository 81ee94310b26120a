package auth

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/travel-packages/internal/logger"
)

// activityRefreshInterval は last_activity を更新する最小間隔です。
// 無操作タイムアウトの判定はこの間隔ぶん遅れることがあります。
const activityRefreshInterval = time.Minute

// ResolveSession は Cookie からセッションを読み込み、有効であれば
// Session をコンテキストに格納するミドルウェアです。
//
// 最大有効期間または無操作タイムアウトを超えたセッションはその場で破棄し、
// 未ログインとして扱います。sessions.Sessions の後に登録してください。
func (m *Manager) ResolveSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		userID, _ := sess.Get(sessionKeyUserID).(string)
		if userID == "" {
			return
		}

		log := logger.FromContext(c.Request.Context())
		// Cookie には秒単位で保存しているため、比較も秒単位で行う
		now := m.now().Truncate(time.Second)
		issuedAt := readUnix(sess.Get(sessionKeyIssuedAt))
		lastActive := readUnix(sess.Get(sessionKeyLastActive))

		if issuedAt.IsZero() || now.Sub(issuedAt) > m.maxLifetime ||
			lastActive.IsZero() || now.Sub(lastActive) > m.idleTimeout {
			if err := m.destroy(sess); err != nil {
				log.Warn().Err(err).Msg("failed to destroy expired session")
			}
			return
		}

		// 最終アクセス時刻の書き込みは activityRefreshInterval ごとに間引く
		if now.Sub(lastActive) >= activityRefreshInterval {
			sess.Set(sessionKeyLastActive, now.Unix())
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Msg("failed to refresh session activity")
			}
			lastActive = now
		}

		username, _ := sess.Get(sessionKeyUsername).(string)
		c.Set(contextSessionKey, Session{
			ID:         sess.ID(),
			UserID:     userID,
			Username:   username,
			IssuedAt:   issuedAt,
			LastActive: lastActive,
		})
	}
}

// RequireLogin は有効なセッションがないリクエストを 401 で拒否するミドルウェアです。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); !ok {
			_ = c.Error(ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
