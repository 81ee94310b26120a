package auth

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/travel-packages/internal/apperr"
	"github.com/yourusername/travel-packages/internal/logger"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register は認証関連のルートを登録します。
func (m *Manager) Register(r gin.IRoutes) {
	r.POST("/signup", requireJSON(), m.Signup)
	r.POST("/login", requireJSON(), m.Login)
	r.GET("/logout", m.Logout)
	r.GET("/protected", m.RequireLogin(), m.Protected)
}

// requireJSON は Content-Type が application/json でない POST を 415 で拒否します。
// フォーム送信や text/plain はプリフライトなしでクロスサイト送信できるため、
// JSON に限定して CORS の許可リストを必ず通るようにします。
func requireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != gin.MIMEJSON {
			fail(c, ErrUnsupportedMediaType)
			return
		}
		c.Next()
	}
}

// Signup は POST /signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.InvalidInput("email, username and password are required"))
		return
	}

	user, err := m.svc.Signup(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info().
		Str("user_id", user.ID.Hex()).
		Msg("user signed up")
	c.String(http.StatusCreated, "Signup successful")
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.InvalidInput("username and password are required"))
		return
	}

	ctx := c.Request.Context()
	client := c.ClientIP()
	if retryAfter := m.lockedFor(ctx, client); retryAfter > 0 {
		// Retry-After は秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(retryAfter.Seconds())), 10))
		fail(c, ErrTooManyAttempts)
		return
	}

	user, err := m.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			m.recordFailure(ctx, client)
		}
		fail(c, err)
		return
	}
	m.resetAttempts(ctx, client)

	now := m.now()
	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(sessionKeyUserID, user.ID.Hex())
	sess.Set(sessionKeyUsername, user.Username)
	sess.Set(sessionKeyIssuedAt, now.Unix())
	sess.Set(sessionKeyLastActive, now.Unix())
	sess.Options(m.cookies.Options())
	if err := sess.Save(); err != nil {
		fail(c, fmt.Errorf("save session: %w: %w", ErrSessionStore, err))
		return
	}

	c.String(http.StatusOK, "Login successful")
}

// Logout は GET /logout のハンドラーです。
// 有効なセッションがない場合も成功として扱います。
func (m *Manager) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	if sess.ID() == "" {
		c.SetSameSite(m.cookies.SameSite)
		c.SetCookie(SessionCookieName, "", -1, "/", "", m.cookies.Secure, true)
		c.String(http.StatusOK, "Logout successful")
		return
	}

	if err := m.destroy(sess); err != nil {
		fail(c, fmt.Errorf("destroy session: %w: %w", ErrSessionStore, err))
		return
	}
	c.String(http.StatusOK, "Logout successful")
}

// Protected はログイン確認用の GET /protected のハンドラーです。
func (m *Manager) Protected(c *gin.Context) {
	c.String(http.StatusOK, "You are authenticated")
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
