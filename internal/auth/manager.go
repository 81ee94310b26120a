// Package auth はユーザー登録・ログイン・セッション管理を提供します。
//
// セッションはサーバー側ストア（本番は MongoDB）に保存し、クライアントには
// 署名付きのセッション ID だけを Cookie で渡します。ログアウト時はストアの
// レコードを削除するため、古い Cookie を再送しても認証は通りません。
package auth

import (
	"context"
	"time"

	"github.com/gin-contrib/sessions"

	"github.com/yourusername/travel-packages/internal/logger"
)

// Options は Manager の設定です。
type Options struct {
	Cookies     CookieSettings
	IdleTimeout time.Duration
	Attempts    AttemptStore
}

// Manager は認証ハンドラーとセッションミドルウェアをまとめた構造体です。
type Manager struct {
	svc         *Service
	cookies     CookieSettings
	maxLifetime time.Duration
	idleTimeout time.Duration
	attempts    AttemptStore
	now         func() time.Time
}

// NewManager は認証マネージャーを作成します。
func NewManager(svc *Service, opts Options) *Manager {
	return &Manager{
		svc:         svc,
		cookies:     opts.Cookies,
		maxLifetime: opts.Cookies.MaxAge,
		idleTimeout: opts.IdleTimeout,
		attempts:    opts.Attempts,
		now:         time.Now,
	}
}

// CookieOptions はセッションストアに設定する Cookie 属性を返します。
func (m *Manager) CookieOptions() sessions.Options {
	return m.cookies.Options()
}

// destroy はセッションの値を消去し、ストアのレコードと Cookie を失効させます。
func (m *Manager) destroy(sess sessions.Session) error {
	sess.Clear()
	sess.Options(m.cookies.expired())
	return sess.Save()
}

// 試行制限ストアの障害ではログインを止めず、ログだけ残す。

func (m *Manager) lockedFor(ctx context.Context, key string) time.Duration {
	if m.attempts == nil {
		return 0
	}
	d, err := m.attempts.Locked(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("login throttle lookup failed")
		return 0
	}
	return d
}

func (m *Manager) recordFailure(ctx context.Context, key string) {
	if m.attempts == nil {
		return
	}
	remaining, err := m.attempts.RecordFailure(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("login throttle update failed")
		return
	}
	if remaining == 0 {
		logger.FromContext(ctx).Warn().Str("client", key).Msg("login locked after repeated failures")
	}
}

func (m *Manager) resetAttempts(ctx context.Context, key string) {
	if m.attempts == nil {
		return
	}
	if err := m.attempts.Reset(ctx, key); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("login throttle reset failed")
	}
}
