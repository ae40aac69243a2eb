package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port             string
	PushURL          string
	RedisURL         string
	OfficeID         string
	Credential       string
	PollingInterval  time.Duration
	NotificationCap  int
	LogLevel         slog.Level
	SessionRateLimit float64
	SessionBurst     int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	pushURL := getEnv("PUSH_URL", "")
	if pushURL == "" {
		return nil, fmt.Errorf("PUSH_URL is required")
	}

	pollingMs := getEnvInt("POLLING_INTERVAL_MS", 30000)
	if pollingMs <= 0 {
		return nil, fmt.Errorf("POLLING_INTERVAL_MS must be positive, got %d", pollingMs)
	}
	notificationCap := getEnvInt("NOTIFICATION_CAP", 100)
	if notificationCap <= 0 {
		return nil, fmt.Errorf("NOTIFICATION_CAP must be positive, got %d", notificationCap)
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		PushURL:          pushURL,
		RedisURL:         getEnv("REDIS_URL", ""),
		OfficeID:         getEnv("OFFICE_ID", ""),
		Credential:       getEnv("CREDENTIAL", ""),
		PollingInterval:  time.Duration(pollingMs) * time.Millisecond,
		NotificationCap:  notificationCap,
		LogLevel:         parseLevel(getEnv("LOG_LEVEL", "info")),
		SessionRateLimit: getEnvFloat("SESSION_RATE_LIMIT", 1),
		SessionBurst:     getEnvInt("SESSION_BURST", 5),
	}, nil
}

// HasSubject reports whether a subject was configured for startup.
func (c *Config) HasSubject() bool {
	return c.OfficeID != "" || c.Credential != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
