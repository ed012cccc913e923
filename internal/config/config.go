package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Upstream progressive query API
	UpstreamBaseURL string
	UpstreamTimeout time.Duration

	// Progressive load / export tuning
	ParallelPages   int
	ExportChunkSize int
	LookupCacheTTL  time.Duration

	// WebSocket timing
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "http://localhost:9000"),
	}

	upstreamTimeout, err := strconv.Atoi(getEnv("UPSTREAM_TIMEOUT", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	// Zero keeps the upstream's own timeout in charge; 504 responses are
	// mapped to the timeout message category instead.
	config.UpstreamTimeout = time.Duration(upstreamTimeout) * time.Second

	parallelPages, err := strconv.Atoi(getEnv("PARALLEL_PAGES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid PARALLEL_PAGES: %w", err)
	}
	config.ParallelPages = parallelPages

	exportChunk, err := strconv.Atoi(getEnv("EXPORT_CHUNK_SIZE", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_CHUNK_SIZE: %w", err)
	}
	config.ExportChunkSize = exportChunk

	lookupTTL, err := strconv.Atoi(getEnv("LOOKUP_CACHE_TTL", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOOKUP_CACHE_TTL: %w", err)
	}
	config.LookupCacheTTL = time.Duration(lookupTTL) * time.Second

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
