// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/travel-packages/internal/config"
	"github.com/yourusername/travel-packages/internal/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logger.New("api", "info").Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New("api", cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if app.worker != nil {
		app.worker.Start()
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("mode", cfg.GinMode).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// HTTP を先に止めてから、ワーカーとストアを閉じる
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	app.close(shutdownCtx)
	log.Info().Msg("server exited")
}
