package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	OCRProviderBackend = "backend"
	OCRProviderOpenAI  = "openai"

	// DevJWTSecret signs API tokens when nothing else is configured. It is
	// refused once DATABASE_URL turns the history API on.
	DevJWTSecret = "dev-only-change-me"
)

type Config struct {
	// Discord Bot
	DiscordToken string

	// ShareTab backend (OCR + pricing)
	BackendURL  string
	HTTPTimeout time.Duration

	// Receipt OCR
	OCRProvider     string
	OpenAIAPIKey    string
	OpenAIModel     string
	RedisURL        string
	ReceiptCacheTTL time.Duration

	// Split history ledger
	DatabaseURL string

	// Web Server
	WebBind   string
	JWTSecret string

	// Sessions
	SessionIdleTimeout time.Duration

	LogLevel string
}

// Load reads the process configuration. Only serve needs the Discord
// token, so callers that just mint API tokens use LoadBase.
func Load() (*Config, error) {
	cfg, err := LoadBase()
	if err != nil {
		return nil, err
	}
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	return cfg, nil
}

func LoadBase() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		BackendURL:   strings.TrimRight(getEnvDefault("SHARETAB_BACKEND_URL", "https://sharetab.gomdoli.dev"), "/"),
		OCRProvider:  getEnvDefault("OCR_PROVIDER", OCRProviderBackend),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		RedisURL:     os.Getenv("REDIS_URL"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		WebBind:      getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		JWTSecret:    getEnvDefault("JWT_SECRET", DevJWTSecret),
		LogLevel:     getEnvDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.HTTPTimeout, err = getDurationDefault("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReceiptCacheTTL, err = getDurationDefault("RECEIPT_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = getDurationDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	parsed, err := url.Parse(c.BackendURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("SHARETAB_BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	switch c.OCRProvider {
	case OCRProviderBackend:
	case OCRProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when OCR_PROVIDER=%s", OCRProviderOpenAI)
		}
	default:
		return fmt.Errorf("OCR_PROVIDER must be %q or %q, got %q", OCRProviderBackend, OCRProviderOpenAI, c.OCRProvider)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.DatabaseURL != "" && (strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == DevJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a private value when DATABASE_URL is set")
	}
	return nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
