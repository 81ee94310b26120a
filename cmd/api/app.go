package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-contrib/sessions/mongo/mongodriver"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/travel-packages/internal/auth"
	"github.com/yourusername/travel-packages/internal/catalog"
	"github.com/yourusername/travel-packages/internal/config"
	"github.com/yourusername/travel-packages/internal/jobs"
	"github.com/yourusername/travel-packages/internal/logger"
	"github.com/yourusername/travel-packages/internal/server"
	"github.com/yourusername/travel-packages/internal/storage"
)

// packageStore は参照 API とインポートの両方に使うパッケージストアです。
type packageStore interface {
	catalog.Store
	catalog.Importer
}

// application は起動時に一度だけ組み立てる依存関係一式です。
type application struct {
	cfg    *config.Config
	log    *logger.Logger
	mongo  *storage.Mongo // メモリモードでは nil
	redis  *redis.Client  // QUEUE_REDIS_URL 未設定時は nil
	worker *jobs.Worker
	router *gin.Engine
}

func newApplication(ctx context.Context, cfg *config.Config, log *logger.Logger) (*application, error) {
	app := &application{cfg: cfg, log: log}

	secret, err := sessionSecret(cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		users        auth.UserStore
		packages     packageStore
		sessionStore sessions.Store
		health       func(context.Context) error
	)
	if cfg.MongoURI != "" {
		m, err := storage.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.StoreTimeout)
		if err != nil {
			return nil, err
		}
		app.mongo = m

		mongoUsers := auth.NewMongoUserStore(m.Collection(storage.UsersCollection))
		if err := mongoUsers.EnsureIndexes(ctx); err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("ensure user indexes: %w", err)
		}
		mongoPackages := catalog.NewMongoStore(m.Collection(storage.PackagesCollection))
		if err := mongoPackages.EnsureIndexes(ctx); err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("ensure package indexes: %w", err)
		}

		users = mongoUsers
		packages = mongoPackages
		sessionStore = mongodriver.NewStore(
			m.Collection(storage.SessionsCollection),
			int(cfg.SessionMaxAge.Seconds()),
			true,
			[]byte(secret),
		)
		health = m.Ping
	} else {
		log.Warn().Msg("MONGO_DB_URI is not set; using in-memory stores")
		users = auth.NewMemoryUserStore()
		packages = catalog.NewMemoryStore()
		sessionStore = memstore.NewStore([]byte(secret))
	}

	policy := auth.ThrottlePolicy{
		MaxAttempts:  cfg.LoginMaxAttempts,
		Window:       cfg.LoginWindow,
		LockDuration: cfg.LoginLockDuration,
	}
	var attempts auth.AttemptStore = auth.NewMemoryAttempts(policy)

	if cfg.QueueRedisURL != "" {
		opt, err := redis.ParseURL(cfg.QueueRedisURL)
		if err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("parse QUEUE_REDIS_URL: %w", err)
		}
		app.redis = redis.NewClient(opt)
		attempts = auth.NewRedisAttempts(app.redis, policy)

		worker, err := jobs.NewWorker(cfg, jobs.NewStore(app.redis, cfg.JobTTL()), packages, log.WithStr("component", "worker"))
		if err != nil {
			app.close(ctx)
			return nil, err
		}
		app.worker = worker
	} else {
		log.Info().Msg("QUEUE_REDIS_URL is not set; catalog import worker disabled")
	}

	manager := auth.NewManager(auth.NewService(users, 0), auth.Options{
		Cookies: auth.CookieSettings{
			Secure:   cfg.Production(),
			SameSite: cfg.SameSite(),
			MaxAge:   cfg.SessionMaxAge,
		},
		IdleTimeout: cfg.SessionIdleTimeout,
		Attempts:    attempts,
	})

	router, err := server.NewRouter(server.Options{
		Config:       cfg,
		Logger:       log,
		SessionStore: sessionStore,
		Auth:         manager,
		Catalog:      catalog.NewHandler(catalog.NewService(packages)),
		Health:       health,
	})
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	app.router = router
	return app, nil
}

// close はワーカー、Redis、MongoDB の順に停止します。
func (a *application) close(ctx context.Context) {
	if a.worker != nil {
		a.worker.Shutdown()
		a.worker = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
		a.redis = nil
	}
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			a.log.Warn().Err(err).Msg("failed to disconnect mongo")
		}
		a.mongo = nil
	}
}

// sessionSecret は SESSION_SECRET を返します。
// 本番以外で未設定の場合はプロセスごとのランダムな値を生成します。
func sessionSecret(cfg *config.Config, log *logger.Logger) (string, error) {
	if cfg.SessionSecret != "" {
		return cfg.SessionSecret, nil
	}
	if cfg.Production() {
		return "", errors.New("SESSION_SECRET is required in production")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	log.Warn().Msg("SESSION_SECRET is not set; sessions will not survive a restart")
	return hex.EncodeToString(buf), nil
}
