package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the explorer dashboard service.
type Config struct {
	// HTTP listener
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Backend API
	APIBaseURL   string
	APITimeoutMS int
	DefaultLimit int
	MaxLimit     int

	// Presentation
	ChartHeight int
	Locale      string
	ThemeFile   string

	LogLevel    string
	LogFile     string
	SnapshotDir string
	// SessionIdleTimeout closes sessions with no live subscribers and no
	// requests for this long. Zero keeps sessions until they are deleted.
	SessionIdleTimeout time.Duration
	// HistoryDir holds the per-day query run log. Empty disables it.
	HistoryDir       string
	HistoryMaxSizeMB int
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:         getEnvOrDefault("EXPLORER_BIND_ADDR", "127.0.0.1:3000"),
		PortCandidates:   getEnvListOrDefault("EXPLORER_PORT_CANDIDATES", []string{"127.0.0.1:3001", "127.0.0.1:3002", "127.0.0.1:3003"}),
		PortAutoFallback: getEnvBoolOrDefault("EXPLORER_PORT_AUTO_FALLBACK", true),
		APIBaseURL:       strings.TrimRight(getEnvOrDefault("EXPLORER_API_BASE_URL", "http://localhost:8000"), "/"),
		APITimeoutMS:     getEnvIntOrDefault("EXPLORER_API_TIMEOUT_MS", 30000),
		DefaultLimit:     getEnvIntOrDefault("EXPLORER_DEFAULT_LIMIT", 500),
		MaxLimit:         getEnvIntOrDefault("EXPLORER_MAX_LIMIT", 5000),
		ChartHeight:      getEnvIntOrDefault("EXPLORER_CHART_HEIGHT", 450),
		Locale:           strings.ToLower(getEnvOrDefault("EXPLORER_LOCALE", "en")),
		ThemeFile:        getEnvOrDefault("EXPLORER_THEME_CONFIG", ""),
		LogLevel:         strings.ToLower(getEnvOrDefault("EXPLORER_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("EXPLORER_LOG_FILE", "logs/explorer.log"),
		SnapshotDir:      getEnvOrDefault("EXPLORER_SNAPSHOT_DIR", "./snapshots"),
		HistoryDir:       strings.TrimSpace(os.Getenv("EXPLORER_HISTORY_DIR")),
		HistoryMaxSizeMB: getEnvIntOrDefault("EXPLORER_HISTORY_MAX_SIZE_MB", 50),
	}
	cfg.SessionIdleTimeout = getEnvDurationOrDefault("EXPLORER_SESSION_IDLE_TIMEOUT", 30*time.Minute)

	if cfg.APITimeoutMS < 1000 {
		cfg.APITimeoutMS = 1000
	}
	if cfg.MaxLimit < 1 {
		cfg.MaxLimit = 5000
	}
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = 500
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	if cfg.HistoryMaxSizeMB < 1 {
		cfg.HistoryMaxSizeMB = 50
	}
	if cfg.SessionIdleTimeout < 0 {
		cfg.SessionIdleTimeout = 0
	}
	if cfg.ChartHeight < 100 {
		cfg.ChartHeight = 450
	}
	if cfg.Locale != "en" && cfg.Locale != "vi" {
		cfg.Locale = "en"
	}

	return cfg, nil
}

// APITimeout returns the backend client timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
