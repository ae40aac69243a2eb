package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Priya8975/appointment-notifier/internal/api"
	"github.com/Priya8975/appointment-notifier/internal/bridge"
	"github.com/Priya8975/appointment-notifier/internal/config"
	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/session"
	ws "github.com/Priya8975/appointment-notifier/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cache invalidation: Redis when configured, log-only otherwise
	var invalidator bridge.Bridge = bridge.NewLog(logger)
	if cfg.RedisURL != "" {
		redisClient, err := bridge.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		invalidator = bridge.NewRedis(redisClient, logger)
		logger.Info("connected to Redis")
	}

	// UI hub
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	dialer, err := ws.NewDialer(cfg.PushURL, logger)
	if err != nil {
		logger.Error("invalid push url", "error", err)
		os.Exit(1)
	}

	sess, err := session.New(session.Config{
		Transport:       dialer,
		Bridge:          invalidator,
		Publisher:       hub,
		Logger:          logger,
		PollingInterval: cfg.PollingInterval,
		NotificationCap: cfg.NotificationCap,
	})
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	if cfg.HasSubject() {
		_, err := sess.Start(domain.Subject{OfficeID: cfg.OfficeID, Credential: cfg.Credential})
		if err != nil {
			logger.Error("configured subject rejected", "error", err, "office_id", cfg.OfficeID)
			os.Exit(1)
		}
	}

	limiter := api.NewRateLimiter(cfg.SessionRateLimit, cfg.SessionBurst)
	router := api.NewRouter(sess, hub, limiter, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting",
			"port", cfg.Port,
			"push_url", cfg.PushURL,
			"polling_interval", cfg.PollingInterval.String(),
			"notification_cap", cfg.NotificationCap,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Push connection and poller go before the hub they publish to
	sess.Close()
	cancel()

	logger.Info("server stopped")
}
