package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	OpenAI    OpenAIConfig
	OTEL      OTELConfig
	Assistant AssistantConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL     string
	APIKey  string
	Enabled bool
}

// OpenAIConfig holds configuration for the generative collaborator
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPM   int
	RateLimitBurst int
	MaxTokens      int
	Temperature    float64
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// AssistantConfig holds conversation behaviour settings
type AssistantConfig struct {
	DefaultLocale     string
	TimeZone          string
	HistoryLimit      int
	HistoryTokens     int
	ResultLimit       int
	DisplayLimit      int
	ExternalSearchURL string
	KnowledgePath     string
	SessionTTL        time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Environment: getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "ticket_assistant"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout:        getEnvAsDuration("OPENAI_TIMEOUT", 20*time.Second),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
			MaxTokens:      getEnvAsInt("OPENAI_MAX_TOKENS", 600),
			Temperature:    getEnvAsFloat("OPENAI_TEMPERATURE", 0.4),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "ticket-assistant"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Assistant: AssistantConfig{
			DefaultLocale:     getEnv("ASSISTANT_DEFAULT_LOCALE", "zh-TW"),
			TimeZone:          getEnv("ASSISTANT_TIMEZONE", "Asia/Taipei"),
			HistoryLimit:      getEnvAsInt("ASSISTANT_HISTORY_LIMIT", 6),
			HistoryTokens:     getEnvAsInt("ASSISTANT_HISTORY_TOKENS", 1500),
			ResultLimit:       getEnvAsInt("ASSISTANT_RESULT_LIMIT", 10),
			DisplayLimit:      getEnvAsInt("ASSISTANT_DISPLAY_LIMIT", 5),
			ExternalSearchURL: getEnv("ASSISTANT_EXTERNAL_SEARCH_URL", "https://www.google.com/search?q="),
			KnowledgePath:     getEnv("ASSISTANT_KNOWLEDGE_PATH", ""),
			SessionTTL:        getEnvAsDuration("ASSISTANT_SESSION_TTL", 30*24*time.Hour),
		},
	}

	if cfg.Assistant.DefaultLocale != "zh-TW" && cfg.Assistant.DefaultLocale != "en" {
		return nil, fmt.Errorf("unsupported ASSISTANT_DEFAULT_LOCALE %q", cfg.Assistant.DefaultLocale)
	}
	if _, err := time.LoadLocation(cfg.Assistant.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid ASSISTANT_TIMEZONE %q: %w", cfg.Assistant.TimeZone, err)
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location returns the configured wall-clock zone, falling back to UTC.
func (c *AssistantConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
