package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	RedisURL       string
	MigrationsDir  string
	CORSAllowAll   bool
	CORSOrigins    []string
	BusinessTZ     string
	DefaultLang    string
	GeminiAPIKey   string
	GeminiModel    string
	NLUTimeout     time.Duration
	EmbeddingURL   string
	EmbeddingModel string
	ContextWindow  int
	OrderStateTTL  time.Duration
	CustomerTTL    time.Duration
	PartsCacheTTL  time.Duration
	WebhookRPS     float64
	WebhookBurst   int
	WhatsAppURL    string
	WhatsAppKey    string
	WhatsAppSender string
	ReminderQueue  string
	ReminderDelay  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		BusinessTZ:     getEnv("BUSINESS_TIMEZONE", "Asia/Jakarta"),
		DefaultLang:    getEnv("DEFAULT_LANGUAGE", "id"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		NLUTimeout:     mustDuration(getEnv("NLU_TIMEOUT", "20s")),
		EmbeddingURL:   getEnv("EMBEDDING_SERVICE_URL", "http://localhost:8081"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		ContextWindow:  mustInt(getEnv("CONTEXT_WINDOW", "10"), 10),
		OrderStateTTL:  mustDuration(getEnv("ORDER_STATE_TTL", "2h")),
		CustomerTTL:    mustDuration(getEnv("CUSTOMER_CACHE_TTL", "24h")),
		PartsCacheTTL:  mustDuration(getEnv("PARTS_CACHE_TTL", "12h")),
		WebhookRPS:     mustFloat(getEnv("WEBHOOK_RATE_LIMIT_RPS", "5"), 5),
		WebhookBurst:   mustInt(getEnv("WEBHOOK_RATE_LIMIT_BURST", "10"), 10),
		WhatsAppURL:    getEnv("WHATSAPP_API_URL", ""),
		WhatsAppKey:    getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppSender: getEnv("WHATSAPP_SENDER", ""),
		ReminderQueue:  getEnv("REMINDER_QUEUE", "default"),
		ReminderDelay:  mustDuration(getEnv("REMINDER_DELAY", "4h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.DefaultLang != "id" && cfg.DefaultLang != "en" {
		return nil, fmt.Errorf("DEFAULT_LANGUAGE must be id or en")
	}
	if cfg.NLUTimeout <= 0 {
		return nil, fmt.Errorf("NLU_TIMEOUT must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string, fallback int) int {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

func mustFloat(value string, fallback float64) float64 {
	var f float64
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%g", &f); err != nil || f <= 0 {
		return fallback
	}
	return f
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
