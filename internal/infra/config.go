package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	BriaAPIKey        string
	BriaBaseURL       string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
	OpenRouterReferer string
	OpenRouterTitle   string
	StoragePath       string
	GeoIPDBPath       string
	AllowedOrigins    []string
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	SessionTTL        time.Duration
	RateLimitPerMin   int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The Bria and OpenRouter keys are optional here
// because callers may supply per-request overrides.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		BriaAPIKey:        os.Getenv("BRIA_API_KEY"),
		BriaBaseURL:       getEnv("BRIA_BASE_URL", "https://engine.prod.bria-api.com"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "mistralai/mistral-nemo:free"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterReferer: os.Getenv("OPENROUTER_REFERER"),
		OpenRouterTitle:   os.Getenv("OPENROUTER_TITLE"),
		StoragePath:       getEnv("STORAGE_PATH", "data/assets"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins:    splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		SessionTTL:        time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
