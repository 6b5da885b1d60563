// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port               string
	FrontendURL        string
	APIBaseURL         string // REST backend, e.g. https://api.example.com/api
	DBPath             string // "" keeps visitor state in memory
	LoginPath          string
	MaxRequestBodySize int64
	Visitor            VisitorConfig
	AI                 AIConfig
	Timeout            TimeoutConfig
}

// VisitorConfig controls how long idle visitor state is kept.
type VisitorConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// AIConfig configures the generative AI proxy.
type AIConfig struct {
	Switch            bool // AI_ENABLED
	APIKey            string
	ChatModel         string
	ImageModel        string
	RequestsPerWindow int
	Window            time.Duration
}

// Enabled reports whether AI is switched on and an API key is configured.
func (a AIConfig) Enabled() bool { return a.Switch && a.APIKey != "" }

// TimeoutConfig bounds server-side work.
type TimeoutConfig struct {
	HealthCheck time.Duration
	Shutdown    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		APIBaseURL:         strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
		DBPath:             getEnv("DB_PATH", "./data/folio.db"),
		LoginPath:          getEnv("LOGIN_PATH", "/admin/login"),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 1<<20)),
		Visitor: VisitorConfig{
			TTL:           getEnvDuration("VISITOR_TTL", 30*24*time.Hour),
			SweepInterval: getEnvDuration("SWEEP_INTERVAL", time.Hour),
		},
		AI: AIConfig{
			Switch:            getEnvBool("AI_ENABLED", true),
			APIKey:            getEnv("GEMINI_API_KEY", ""),
			ChatModel:         getEnv("AI_CHAT_MODEL", "gemini-2.0-flash"),
			ImageModel:        getEnv("AI_IMAGE_MODEL", "imagen-3.0-generate-002"),
			RequestsPerWindow: getEnvInt("AI_RATE_LIMIT_REQUESTS", 10),
			Window:            getEnvDuration("AI_RATE_LIMIT_WINDOW", time.Minute),
		},
		Timeout: TimeoutConfig{
			HealthCheck: 5 * time.Second,
			Shutdown:    10 * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL cannot be empty")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must start with /")
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be > 0")
	}
	if c.Visitor.TTL <= 0 || c.Visitor.SweepInterval <= 0 {
		return fmt.Errorf("VISITOR_TTL and SWEEP_INTERVAL must be > 0")
	}
	if c.AI.RequestsPerWindow <= 0 || c.AI.Window <= 0 {
		return fmt.Errorf("AI_RATE_LIMIT_REQUESTS and AI_RATE_LIMIT_WINDOW must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins: the frontend URL when set, any otherwise.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{strings.TrimRight(c.FrontendURL, "/")}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
