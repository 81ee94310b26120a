// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// ストア設定
	MongoURI      string        `env:"MONGO_DB_URI"`                       // MongoDB 接続文字列
	MongoDatabase string        `env:"MONGO_DB_NAME" envDefault:"travel"`  // データベース名
	StoreTimeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`     // ストア操作ごとのタイムアウト

	// セッション設定
	SessionSecret      string        `env:"SESSION_SECRET"`                          // セッション署名用の秘密鍵
	SessionMaxAge      time.Duration `env:"SESSION_MAX_AGE" envDefault:"12h"`        // セッションの最大有効期間
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`   // 無操作タイムアウト
	CookieSameSite     string        `env:"COOKIE_SAME_SITE" envDefault:"lax"`       // none / lax / strict

	// サーバー設定
	Port     string `env:"PORT" envDefault:"3000"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CORS設定
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// X-Forwarded-For を信頼するプロキシ（IP または CIDR）。未設定なら接続元アドレスのみを使う
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// ログイン試行制限
	LoginMaxAttempts  int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow       time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`
	LoginLockDuration time.Duration `env:"LOGIN_LOCK_DURATION" envDefault:"10m"`

	// ジョブ/キュー設定
	QueueRedisURL     string `env:"QUEUE_REDIS_URL"`                       // Asynq とログイン制限用の Redis 接続URL
	JobExpireMinutes  int    `env:"JOB_EXPIRE_MINUTES" envDefault:"60"`    // インポートジョブ情報の保持期間（分）
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"2"`
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	cfg.CORSAllowedOrigins = normalizeOrigins(cfg.CORSAllowedOrigins)
	cfg.TrustedProxies = normalizeProxies(cfg.TrustedProxies)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Production は本番相当の環境かどうかを返します。
// 本番では Cookie に Secure 属性が付き、設定の検証も厳しくなります。
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production") || c.GinMode == "release"
}

// SameSite は COOKIE_SAME_SITE を http.SameSite に変換します。
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}

// JobTTL はインポートジョブ情報の保持期間を返します。
func (c *Config) JobTTL() time.Duration {
	if c.JobExpireMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.JobExpireMinutes) * time.Minute
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	var errs []error

	if c.Production() {
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_DB_URI is required in production"))
		}
		if len(c.SessionSecret) < 32 {
			errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes in production"))
		}
	}

	switch strings.ToLower(c.CookieSameSite) {
	case "none":
		// SameSite=None は Secure 属性なしだとブラウザに拒否される
		if !c.Production() {
			errs = append(errs, errors.New("COOKIE_SAME_SITE=none requires production mode (Secure cookies)"))
		}
	case "lax", "strict":
	default:
		errs = append(errs, fmt.Errorf("COOKIE_SAME_SITE must be none, lax or strict: %q", c.CookieSameSite))
	}

	if len(c.CORSAllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must contain at least one origin"))
	}
	for _, origin := range c.CORSAllowedOrigins {
		if err := validateOrigin(origin); err != nil {
			errs = append(errs, err)
		}
	}

	for _, proxy := range c.TrustedProxies {
		if err := validateProxy(proxy); err != nil {
			errs = append(errs, err)
		}
	}

	if c.LoginMaxAttempts <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be positive"))
	}
	if c.SessionMaxAge <= 0 || c.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_MAX_AGE and SESSION_IDLE_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func normalizeProxies(proxies []string) []string {
	var out []string
	for _, p := range proxies {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateProxy(proxy string) error {
	if net.ParseIP(proxy) != nil {
		return nil
	}
	if _, _, err := net.ParseCIDR(proxy); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES entry must be an IP or CIDR: %q", proxy)
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func validateOrigin(origin string) error {
	if strings.Contains(origin, "*") {
		return fmt.Errorf("CORS origin must not contain a wildcard: %q", origin)
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CORS origin must be an absolute http(s) origin: %q", origin)
	}
	if u.Path != "" || u.RawQuery != "" {
		return fmt.Errorf("CORS origin must not contain a path: %q", origin)
	}
	return nil
}
