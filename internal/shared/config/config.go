package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway
type Config struct {
	// Server
	Port    string
	Env     string
	BaseURL string

	// Database
	DatabaseURL string
	AutoMigrate bool

	// Redis (optional, in-memory caches are used without it)
	RedisURL string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Provider API keys
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GoogleAPIKey     string
	GroqAPIKey       string
	XAIAPIKey        string
	DeepInfraAPIKey  string
	CerebrasAPIKey   string
	FireworksAPIKey  string
	HuggingFaceToken string
	ZhipuAIAPIKey    string
	MistralAPIKey    string

	// Cashfree
	CashfreeAppID         string
	CashfreeSecretKey     string
	CashfreeWebhookSecret string
	CashfreeProduction    bool
	ProMonthlyPriceINR    int

	// Email
	ResendAPIKey     string
	EmailFrom        string
	AdminAlertEmails []string

	// Rate limiting
	UnauthDailyLimit  int
	DailyMessageLimit int

	// Caching
	CacheEnabled         bool
	ResponseCacheTTL     time.Duration
	EntitlementCacheSize int
	EntitlementCacheTTL  time.Duration

	// Subscription
	ProPeriodDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		BaseURL:     strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", true),
		RedisURL:    getEnv("REDIS_URL", ""),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		GoogleAPIKey:     getEnv("GOOGLE_GENERATIVE_AI_API_KEY", ""),
		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		XAIAPIKey:        getEnv("XAI_API_KEY", ""),
		DeepInfraAPIKey:  getEnv("DEEPINFRA_API_KEY", ""),
		CerebrasAPIKey:   getEnv("CEREBRAS_API_KEY", ""),
		FireworksAPIKey:  getEnv("FIREWORKS_API_KEY", ""),
		HuggingFaceToken: getEnv("HF_TOKEN", ""),
		ZhipuAIAPIKey:    getEnv("ZHIPUAI_API_KEY", ""),
		MistralAPIKey:    getEnv("MISTRAL_API_KEY", ""),

		CashfreeAppID:         getEnv("CASHFREE_APP_ID", ""),
		CashfreeSecretKey:     getEnv("CASHFREE_SECRET_KEY", ""),
		CashfreeWebhookSecret: getEnv("CASHFREE_WEBHOOK_SECRET", ""),
		CashfreeProduction:    getEnv("CASHFREE_ENV", "sandbox") == "production",
		ProMonthlyPriceINR:    getEnvInt("PRO_MONTHLY_PRICE_INR", 1299),

		ResendAPIKey:     getEnv("RESEND_API_KEY", ""),
		EmailFrom:        getEnv("EMAIL_FROM", "AJ STUDIOZ <noreply@ajstudioz.com>"),
		AdminAlertEmails: getEnvList("ADMIN_ALERT_EMAILS"),

		UnauthDailyLimit:  getEnvInt("UNAUTH_DAILY_LIMIT", 3),
		DailyMessageLimit: getEnvInt("DAILY_MESSAGE_LIMIT", 100),

		CacheEnabled:         getEnvBool("CACHE_ENABLED", true),
		ResponseCacheTTL:     getEnvDuration("RESPONSE_CACHE_TTL", 24*time.Hour),
		EntitlementCacheSize: getEnvInt("ENTITLEMENT_CACHE_SIZE", 10000),
		EntitlementCacheTTL:  getEnvDuration("ENTITLEMENT_CACHE_TTL", 5*time.Minute),

		ProPeriodDays: getEnvInt("PRO_PERIOD_DAYS", 30),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.ProPeriodDays <= 0 {
		return nil, fmt.Errorf("PRO_PERIOD_DAYS must be positive, got %d", cfg.ProPeriodDays)
	}

	return cfg, nil
}

// ProviderKeys returns a fresh copy of the configured provider keys, keyed
// by provider name. Unset keys are present with an empty value.
func (c *Config) ProviderKeys() map[string]string {
	return map[string]string{
		"openai":      c.OpenAIAPIKey,
		"anthropic":   c.AnthropicAPIKey,
		"google":      c.GoogleAPIKey,
		"groq":        c.GroqAPIKey,
		"xai":         c.XAIAPIKey,
		"deepinfra":   c.DeepInfraAPIKey,
		"cerebras":    c.CerebrasAPIKey,
		"fireworks":   c.FireworksAPIKey,
		"huggingface": c.HuggingFaceToken,
		"zhipuai":     c.ZhipuAIAPIKey,
		"mistral":     c.MistralAPIKey,
	}
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
