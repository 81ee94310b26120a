// Package server は HTTP ルーターを組み立てます。
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/travel-packages/internal/apperr"
	"github.com/yourusername/travel-packages/internal/auth"
	"github.com/yourusername/travel-packages/internal/catalog"
	"github.com/yourusername/travel-packages/internal/config"
	"github.com/yourusername/travel-packages/internal/logger"
)

const healthTimeout = 2 * time.Second

// Options はルーターの依存関係です。
type Options struct {
	Config       *config.Config
	Logger       *logger.Logger
	SessionStore sessions.Store
	Auth         *auth.Manager
	Catalog      *catalog.Handler
	// Health はストアの疎通確認です。nil の場合は常に ok を返します。
	Health func(ctx context.Context) error
}

// NewRouter はミドルウェアとルートを登録した gin.Engine を返します。
// X-Forwarded-For は TrustedProxies に含まれる接続元からのものだけを採用します。
func NewRouter(opts Options) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()
	// nil を渡すとすべてのプロキシを信頼しない
	if err := router.SetTrustedProxies(opts.Config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	router.Use(apperr.Recovery())
	router.Use(requestLogger(log))
	router.Use(apperr.Middleware())
	router.Use(cors.New(corsConfig(opts.Config)))

	opts.SessionStore.Options(opts.Auth.CookieOptions())
	router.Use(sessions.Sessions(auth.SessionCookieName, opts.SessionStore))
	router.Use(opts.Auth.ResolveSession())

	router.GET("/health", healthHandler(opts.Health))
	opts.Auth.Register(router)
	opts.Catalog.Register(router)

	return router, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	return cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// healthHandler は GET /health のハンドラーです。
func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.FromContext(c.Request.Context()).Warn().Err(err).Msg("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
