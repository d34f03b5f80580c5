package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppName     string
	Port        string
	Env         string
	DatabaseURL string
	RedisURL    string

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	CORSOrigins   string

	OpenAIKey     string
	OpenAIBaseURL string

	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string

	MetaVerifyToken string
	MetaAppSecret   string
	MetaGraphURL    string

	PlansFile string

	WorkerCount       int
	WorkerPollSeconds int
	RunWorkers        bool

	LogLevel  string
	LogFormat string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		AppName:     getEnv("APP_NAME", "ReficulBot"),
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		JWTAccessTTL:  time.Duration(getEnvInt("JWT_ACCESS_TTL_MINUTES", 30)) * time.Minute,
		JWTRefreshTTL: time.Duration(getEnvInt("JWT_REFRESH_TTL_DAYS", 7)) * 24 * time.Hour,
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		EmailFrom:     getEnv("EMAIL_FROM", "noreply@reficulbot.com"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "ReficulBot"),

		MetaVerifyToken: getEnv("META_VERIFY_TOKEN", "reficulbot_webhook_token"),
		MetaAppSecret:   os.Getenv("META_APP_SECRET"),
		MetaGraphURL:    getEnv("META_GRAPH_URL", "https://graph.facebook.com"),

		PlansFile: getEnv("PLANS_FILE", "config/plans.yaml"),

		WorkerCount:       getEnvInt("WORKER_COUNT", 2),
		WorkerPollSeconds: getEnvInt("WORKER_POLL_SECONDS", 2),
		RunWorkers:        getEnvBool("RUN_WORKERS", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if cfg.Env == "production" && cfg.JWTSecret == "change-me-in-production" {
		log.Warn().Msg("JWT_SECRET is using the default value in production")
	}

	return cfg
}

// IsProduction reports whether ENV is set to production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowedOrigins returns CORS_ORIGINS in the comma separated form fiber's cors middleware expects.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer in environment, using default")
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
