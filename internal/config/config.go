package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis (optional; rate limiting falls back to in-process buckets)
	RedisURL string

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Matchmaking
	SweepInterval time.Duration
	ToleranceBase int
	WidenPerSec   int
	MaxQueueWait  time.Duration

	// Rooms
	ReadyStartDelay time.Duration
	WaitingTimeout  time.Duration
	GracePeriod     time.Duration
	ForfeitWindow   time.Duration

	// Chat
	ChatDenylist []string
}

func Load() (*Config, error) {
	// .env file, when present
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:      parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		SweepInterval: parseDuration(getEnv("MATCHMAKING_SWEEP_INTERVAL", "2s"), 2*time.Second),
		ToleranceBase: getEnvInt("MATCHMAKING_TOLERANCE_BASE", 200),
		WidenPerSec:   getEnvInt("MATCHMAKING_WIDEN_PER_SEC", 10),
		MaxQueueWait:  parseDuration(getEnv("MATCHMAKING_MAX_WAIT", "2m"), 2*time.Minute),

		ReadyStartDelay: parseDuration(getEnv("ROOM_READY_START_DELAY", "3s"), 3*time.Second),
		WaitingTimeout:  parseDuration(getEnv("ROOM_WAITING_TIMEOUT", "60s"), 60*time.Second),
		GracePeriod:     parseDuration(getEnv("ROOM_GRACE_PERIOD", "5s"), 5*time.Second),
		ForfeitWindow:   parseDuration(getEnv("ROOM_FORFEIT_WINDOW", "30s"), 30*time.Second),

		ChatDenylist: splitList(getEnv("CHAT_DENYLIST", "")),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
