package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Role selects which binary the configuration is validated for.
type Role int

const (
	// RoleServer is the monitor UI server.
	RoleServer Role = iota
	// RoleBackend is the reference analysis backend.
	RoleBackend
)

type Config struct {
	// Server config
	Server ServerConfig

	// analysis API, seen from the UI server and served by the backend
	Backend BackendConfig

	// history database config
	Database DatabaseConfig

	// CSRF and cookie config
	Security SecurityConfig

	// OpenAI config
	APIs APIConfig

	// limits
	Limits LimitsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	Environment  string // development, staging, production
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BackendConfig holds where the analysis API lives.
type BackendConfig struct {
	URL     string
	Port    string
	Timeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL keeps
// history in memory.
type DatabaseConfig struct {
	URL string
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	CSRFSecret       string
	ClientCookieName string
	SecureCookies    bool // true in production
	TrustedOrigins   []string
}

// APIConfig holds external API configuration.
type APIConfig struct {
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIVisionModel string
}

// LimitsConfig holds size and time limits.
type LimitsConfig struct {
	HistoryLimit  int
	MaxImageBytes int64
	ParseTimeout  time.Duration
	FenceIdle     time.Duration
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ListenAddr is the address the given role binds to.
func (c *Config) ListenAddr(role Role) string {
	if role == RoleBackend {
		return ":" + c.Backend.Port
	}
	return ":" + c.Server.Port
}

func Load(role Role) (*Config, error) {
	// .env is optional; production sets real env vars
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []error

	cfg.Server = ServerConfig{
		Port:         getEnvOrDefault("SERVER_PORT", "8080"),
		Environment:  getEnvOrDefault("APP_ENV", "development"),
		BaseURL:      getEnvOrDefault("BASE_URL", "http://localhost:8080"),
		ReadTimeout:  getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second, &errs),
		WriteTimeout: getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second, &errs),
		IdleTimeout:  getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second, &errs),
	}

	cfg.Backend = BackendConfig{
		URL:     strings.TrimRight(getEnvOrDefault("BACKEND_URL", "http://localhost:8000"), "/"),
		Port:    getEnvOrDefault("API_PORT", "8000"),
		Timeout: getDurationOrDefault("BACKEND_TIMEOUT", 45*time.Second, &errs),
	}

	cfg.Database = DatabaseConfig{
		URL: os.Getenv("DATABASE_URL"),
	}

	cfg.Security = SecurityConfig{
		CSRFSecret:       os.Getenv("CSRF_SECRET"),
		ClientCookieName: getEnvOrDefault("CLIENT_COOKIE_NAME", "competitor_monitor_client"),
		SecureCookies:    cfg.Server.Environment == "production",
		TrustedOrigins:   strings.Fields(getEnvOrDefault("CSRF_TRUSTED_ORIGINS", "")),
	}

	cfg.APIs = APIConfig{
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIVisionModel: getEnvOrDefault("OPENAI_VISION_MODEL", "gpt-4o"),
	}

	historyLimit, err := strconv.Atoi(getEnvOrDefault("HISTORY_LIMIT", "10"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid HISTORY_LIMIT: %w", err))
	}
	maxImageMB, err := strconv.Atoi(getEnvOrDefault("MAX_IMAGE_MB", "10"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid MAX_IMAGE_MB: %w", err))
	}
	cfg.Limits = LimitsConfig{
		HistoryLimit:  historyLimit,
		MaxImageBytes: int64(maxImageMB) << 20,
		ParseTimeout:  getDurationOrDefault("PARSE_TIMEOUT", 20*time.Second, &errs),
		FenceIdle:     getDurationOrDefault("FENCE_IDLE", 10*time.Minute, &errs),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration parsing failed:\n%w", errors.Join(errs...))
	}

	if err := cfg.validate(role); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that everything the role needs is present and valid.
func (c *Config) validate(role Role) error {
	var errs []error

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.Server.Environment] {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of: development, staging, production (got: %s)", c.Server.Environment))
	}

	switch role {
	case RoleServer:
		if c.Security.CSRFSecret == "" {
			errs = append(errs, errors.New("CSRF_SECRET is required"))
		} else if len(c.Security.CSRFSecret) < 32 {
			errs = append(errs, errors.New("CSRF_SECRET must be at least 32 characters"))
		}
		if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("BACKEND_URL must be an absolute URL (got: %s)", c.Backend.URL))
		}
		if c.Limits.MaxImageBytes <= 0 {
			errs = append(errs, errors.New("MAX_IMAGE_MB must be positive"))
		}
		if c.Limits.FenceIdle <= c.Backend.Timeout {
			errs = append(errs, fmt.Errorf("FENCE_IDLE (%s) must exceed BACKEND_TIMEOUT (%s)", c.Limits.FenceIdle, c.Backend.Timeout))
		}
	case RoleBackend:
		if c.Limits.HistoryLimit <= 0 {
			errs = append(errs, errors.New("HISTORY_LIMIT must be positive"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}

	return nil
}

// getEnvOrDefault returns the .env value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return d
}
