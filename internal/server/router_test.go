package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/travel-packages/internal/auth"
	"github.com/yourusername/travel-packages/internal/catalog"
	"github.com/yourusername/travel-packages/internal/config"
	"github.com/yourusername/travel-packages/internal/logger"
)

const allowedOrigin = "http://localhost:5173"

func newTestRouter(t *testing.T, health func(context.Context) error, pkgs ...catalog.Package) *gin.Engine {
	t.Helper()
	return newConfiguredRouter(t, &config.Config{CORSAllowedOrigins: []string{allowedOrigin}}, health, pkgs...)
}

func newConfiguredRouter(t *testing.T, cfg *config.Config, health func(context.Context) error, pkgs ...catalog.Package) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	packages := catalog.NewMemoryStore()
	require.NoError(t, packages.UpsertPackages(context.Background(), pkgs))

	manager := auth.NewManager(auth.NewService(auth.NewMemoryUserStore(), bcrypt.MinCost), auth.Options{
		Cookies:     auth.CookieSettings{SameSite: http.SameSiteLaxMode, MaxAge: time.Hour},
		IdleTimeout: 30 * time.Minute,
		Attempts: auth.NewMemoryAttempts(auth.ThrottlePolicy{
			MaxAttempts: 5, Window: 15 * time.Minute, LockDuration: 10 * time.Minute,
		}),
	})

	router, err := NewRouter(Options{
		Config:       cfg,
		Logger:       logger.Nop(),
		SessionStore: memstore.NewStore([]byte("router-test-secret-router-test-s")),
		Auth:         manager,
		Catalog:      catalog.NewHandler(catalog.NewService(packages)),
		Health:       health,
	})
	require.NoError(t, err)
	return router
}

type request struct {
	method    string
	path      string
	body      any
	origin    string
	forwarded string
	cookie    *http.Cookie
}

func serve(t *testing.T, router http.Handler, r request) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if r.origin != "" {
		req.Header.Set("Origin", r.origin)
	}
	if r.forwarded != "" {
		req.Header.Set("X-Forwarded-For", r.forwarded)
	}
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func lastSessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			found = c
		}
	}
	return found
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(t, router, request{method: http.MethodPost, path: "/signup", body: map[string]string{
		"email": "a@x.com", "username": "alice", "password": "pw123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Signup successful", rec.Body.String())

	rec = serve(t, router, request{method: http.MethodGet, path: "/protected"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, router, request{method: http.MethodPost, path: "/login", body: map[string]string{
		"username": "alice", "password": "pw123",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Login successful", rec.Body.String())
	cookie := lastSessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	rec = serve(t, router, request{method: http.MethodGet, path: "/protected", cookie: cookie})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You are authenticated", rec.Body.String())

	rec = serve(t, router, request{method: http.MethodGet, path: "/logout", cookie: cookie})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", rec.Body.String())

	// 古い Cookie を再送しても通らない
	rec = serve(t, router, request{method: http.MethodGet, path: "/protected", cookie: cookie})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPackageLookup(t *testing.T) {
	router := newTestRouter(t, nil,
		catalog.Package{Destination: "Bali", Name: "Bali Escape", Price: "1299"},
		catalog.Package{Destination: "Paris", Name: "Paris Lights", Price: "1999"},
	)

	rec := serve(t, router, request{method: http.MethodGet, path: "/api/packages/Bali"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []catalog.Package
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Bali Escape", list[0].Name)

	rec = serve(t, router, request{method: http.MethodGet, path: "/api/packages/bali"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = serve(t, router, request{method: http.MethodGet, path: "/api/package/" + list[0].ID.Hex()})
	require.Equal(t, http.StatusOK, rec.Code)
	var one catalog.Package
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, list[0].ID, one.ID)

	rec = serve(t, router, request{method: http.MethodGet, path: "/api/package/000000000000000000000000"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"PACKAGE_NOT_FOUND","message":"Package not found"}`, rec.Body.String())

	rec = serve(t, router, request{method: http.MethodGet, path: "/api/package/not-an-id"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(t, router, request{method: http.MethodGet, path: "/api/packages/Bali", origin: allowedOrigin})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, allowedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = serve(t, router, request{method: http.MethodGet, path: "/api/packages/Bali", origin: "http://evil.example"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(t, router, request{method: http.MethodOptions, path: "/login", origin: allowedOrigin})
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, allowedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	rec := serve(t, newTestRouter(t, nil), request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := func(context.Context) error { return errors.New("no reachable servers") }
	rec = serve(t, newTestRouter(t, down), request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(t, router, request{method: http.MethodGet, path: "/health"})
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "trace-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get(requestIDHeader))
}

func failedLogin(t *testing.T, router http.Handler, forwarded string) int {
	t.Helper()
	return serve(t, router, request{
		method:    http.MethodPost,
		path:      "/login",
		body:      map[string]string{"username": "alice", "password": "wrong"},
		forwarded: forwarded,
	}).Code
}

func TestLoginLockIgnoresForwardedForByDefault(t *testing.T) {
	router := newTestRouter(t, nil)

	// 接続元は常に同じなので、ヘッダーを毎回変えてもロックされる
	codes := make([]int, 0, 8)
	for i := 0; i < 8; i++ {
		codes = append(codes, failedLogin(t, router, fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, []int{400, 400, 400, 400, 400, 429, 429, 429}, codes)
}

func TestLoginLockUsesForwardedForFromTrustedProxy(t *testing.T) {
	// httptest のリクエストは 192.0.2.1 から届く
	cfg := &config.Config{
		CORSAllowedOrigins: []string{allowedOrigin},
		TrustedProxies:     []string{"192.0.2.1"},
	}
	router := newConfiguredRouter(t, cfg, nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusBadRequest, failedLogin(t, router, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, failedLogin(t, router, "10.0.0.1"))
	assert.Equal(t, http.StatusBadRequest, failedLogin(t, router, "10.0.0.2"))
}

func TestNewRouterRejectsBadTrustedProxy(t *testing.T) {
	_, err := NewRouter(Options{
		Config: &config.Config{
			CORSAllowedOrigins: []string{allowedOrigin},
			TrustedProxies:     []string{"not-an-ip"},
		},
	})
	assert.Error(t, err)
}
