package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	Keys     APIKeys
	Ai       AIConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RateLimitPerMin    int
	JwtSecret          string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection      string
	ConnectAttempts int
	RetryDelay      time.Duration
}

type SessionConfig struct {
	Backend  string // "postgres" or "memory"
	LockTTL  time.Duration
	CacheTTL time.Duration
}

type APIKeys struct {
	GoogleGemini string
}

type AIConfig struct {
	LLMProvider    string // "gemini", "ollama" or "mock"
	GeminiBaseURL  string
	GeminiModel    string
	OllamaBaseURL  string
	OllamaModel    string
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

// Model returns the model name for the configured provider.
func (c AIConfig) Model() string {
	if strings.EqualFold(c.LLMProvider, "ollama") {
		return c.OllamaModel
	}
	return c.GeminiModel
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RateLimitPerMin:    getEnvAsInt("RATE_LIMIT_PER_MIN", 60),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			ConnectAttempts: getEnvAsInt("DB_CONNECT_ATTEMPTS", 5),
			RetryDelay:      getEnvAsDuration("DB_CONNECT_RETRY_DELAY", 2*time.Second),
		},
		Session: SessionConfig{
			Backend:  strings.ToLower(getEnv("SESSION_BACKEND", "postgres")),
			LockTTL:  getEnvAsDuration("LOCK_TTL", 6*time.Minute),
			CacheTTL: getEnvAsDuration("SESSION_CACHE_TTL", 0),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
			GeminiBaseURL:  getEnv("GEMINI_BASE_URL", ""),
			GeminiModel:    getEnv("GEMINI_MODEL", ""),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:    getEnv("OLLAMA_MODEL", "llama3"),
			MaxAttempts:    getEnvAsInt("LLM_MAX_ATTEMPTS", 10),
			RetryDelay:     getEnvAsDuration("LLM_RETRY_DELAY", time.Second),
			AttemptTimeout: getEnvAsDuration("LLM_ATTEMPT_TIMEOUT", 30*time.Second),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("1500ms") or bare seconds ("2").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
