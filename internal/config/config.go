// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config carries the settings shared by the API and worker entry points.
type Config struct {
	HTTPAddr    string
	DatabaseDSN string
	RedisAddr   string

	NATSURL     string
	NATSSubject string
	NATSQueue   string

	RenderURL    string
	SegmenterURL string

	JWTSecret   string
	JWTAudience string

	AOIDelta        float64
	ConfidenceFloor float64
	MinCoveragePct  float64

	CaptureTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load(logger *zap.Logger) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", zap.Error(err))
	}

	return Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=postgres user=postgres password=postgres dbname=satverify port=5432 sslmode=disable"),
		RedisAddr:   getEnv("REDIS_ADDR", "redis:6379"),

		NATSURL:     getEnv("NATS_URL", "nats://nats:4222"),
		NATSSubject: getEnv("NATS_SUBJECT", "reports.verify"),
		NATSQueue:   getEnv("NATS_QUEUE", "verification-workers"),

		RenderURL:    getEnv("RENDER_URL", "http://render:3000"),
		SegmenterURL: getEnv("SEGMENTER_URL", "http://segmenter:8501"),

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret"),
		JWTAudience: os.Getenv("JWT_AUDIENCE"),

		AOIDelta:        getEnvFloat(logger, "AOI_DELTA", 0.02),
		ConfidenceFloor: getEnvFloat(logger, "CONFIDENCE_FLOOR", 0.3),
		MinCoveragePct:  getEnvFloat(logger, "MIN_COVERAGE_PCT", 3.0),

		CaptureTimeout: getEnvDuration(logger, "CAPTURE_TIMEOUT", 60*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(logger *zap.Logger, key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logger.Warn("invalid float in environment, using default",
			zap.String("key", key), zap.String("value", raw), zap.Float64("default", fallback))
		return fallback
	}
	return value
}

func getEnvDuration(logger *zap.Logger, key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn("invalid duration in environment, using default",
			zap.String("key", key), zap.String("value", raw), zap.Duration("default", fallback))
		return fallback
	}
	return value
}
