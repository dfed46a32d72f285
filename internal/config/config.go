package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingAddr         = errors.New("HTTP_ADDR is required")
	ErrInvalidDirectoryURL = errors.New("SEARX_DIRECTORY_URL must be an absolute http(s) url")
	ErrInvalidTTL          = errors.New("CACHE_TTL_SEC must be positive")
	ErrInvalidTimeout      = errors.New("timeouts must be positive")
	ErrMissingPreferences  = errors.New("PREFERENCES_FILE is required")
)

type Config struct {
	HTTP        HTTPConfig
	Directory   DirectoryConfig
	Cache       CacheConfig
	Preferences PreferencesConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type DirectoryConfig struct {
	URL              string
	DirectoryTimeout time.Duration
	InstanceTimeout  time.Duration
}

type CacheConfig struct {
	TTL time.Duration
}

type PreferencesConfig struct {
	File string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:            getEnvOrDefault("HTTP_ADDR", "127.0.0.1:8095"),
			ShutdownTimeout: time.Duration(getEnvIntOrDefault("SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
		},
		Directory: DirectoryConfig{
			URL:              getEnvOrDefault("SEARX_DIRECTORY_URL", "https://searx.space/"),
			DirectoryTimeout: time.Duration(getEnvIntOrDefault("DIRECTORY_TIMEOUT_SEC", 30)) * time.Second,
			InstanceTimeout:  time.Duration(getEnvIntOrDefault("INSTANCE_TIMEOUT_SEC", 15)) * time.Second,
		},
		Cache: CacheConfig{
			TTL: time.Duration(getEnvIntOrDefault("CACHE_TTL_SEC", 3600)) * time.Second,
		},
		Preferences: PreferencesConfig{
			File: getEnvOrDefault("PREFERENCES_FILE", "rsearx.json"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return ErrMissingAddr
	}
	u, err := url.Parse(c.Directory.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidDirectoryURL
	}
	if c.Cache.TTL <= 0 {
		return ErrInvalidTTL
	}
	if c.Directory.DirectoryTimeout <= 0 || c.Directory.InstanceTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if strings.TrimSpace(c.Preferences.File) == "" {
		return ErrMissingPreferences
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
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
