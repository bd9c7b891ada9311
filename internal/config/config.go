package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	StackAuth StackAuthConfig
	Ai        AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	AuditTopicName     string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	DemoUsername string
	DemoPassword string
	DemoName     string
	DemoEmail    string
}

type StackAuthConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	MaxRetries     int
	AttemptTimeout time.Duration
	AllowDegraded  bool
}

type AIConfig struct {
	LLMProvider   string // "openai" or "ollama"
	LLMModel      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaBaseURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			AuditTopicName:     getEnv("AUDIT_TOPIC_NAME", "AUDIT_EVENTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:     getEnvAsDuration("JWT_TTL", 7*24*time.Hour),
			DemoUsername: getEnv("DEMO_USERNAME", "demo"),
			DemoPassword: getEnv("DEMO_PASSWORD", "demo"),
			DemoName:     getEnv("DEMO_NAME", "Demo User"),
			DemoEmail:    getEnv("DEMO_EMAIL", "demo@example.com"),
		},
		StackAuth: StackAuthConfig{
			BaseURL:        getEnv("STACKAUTH_BASE_URL", "https://app.stack-auth.com"),
			ClientID:       getEnv("STACKAUTH_CLIENT_ID", ""),
			ClientSecret:   getEnv("STACKAUTH_CLIENT_SECRET", ""),
			RedirectURL:    getEnv("STACKAUTH_REDIRECT_URL", "http://localhost:3000/api/stackauth/callback"),
			MaxRetries:     getEnvAsInt("STACKAUTH_MAX_RETRIES", 2),
			AttemptTimeout: getEnvAsDuration("STACKAUTH_ATTEMPT_TIMEOUT", 15*time.Second),
			AllowDegraded:  getEnvAsBool("STACKAUTH_ALLOW_DEGRADED", false),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
			LLMModel:      getEnv("LLM_MODEL", "gpt-3.5-turbo"),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
