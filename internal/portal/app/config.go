package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIBaseURL is returned by Validate when API_BASE_URL is unset.
var ErrMissingAPIBaseURL = errors.New("API_BASE_URL is required")

type Config struct {
	APIBaseURL     string   // Required: base URL of the payslip API
	ForwardCookies []string // Optional: cookie names forwarded upstream (default: all)
	CSRFSecret     string   // Optional: form token secret (default: random per process)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./portal.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	DispatchRetention    time.Duration // How long dispatch records are kept (default: 90 days)
	UpstreamTimeout      time.Duration // Timeout of each payslip API call (default: 10s)
}

func LoadConfig() Config {
	return Config{
		APIBaseURL:           strings.TrimSpace(os.Getenv("API_BASE_URL")),
		ForwardCookies:       getEnvListOrDefault("FORWARD_COOKIES", nil),
		CSRFSecret:           os.Getenv("CSRF_SECRET"),
		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "portal.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		DispatchRetention:    getEnvDurationOrDefault("DISPATCH_RETENTION", 90*24*time.Hour),
		UpstreamTimeout:      getEnvDurationOrDefault("UPSTREAM_TIMEOUT", 10*time.Second),
	}
}

// Validate reports configuration the portal cannot start with.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid API_BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q: want an absolute http(s) URL", c.APIBaseURL)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping empty items.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
