package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	ServiceNow   ServiceNowConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Report       ReportConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// ServiceNowConfig holds upstream ticket-store connection values.
type ServiceNowConfig struct {
	BaseURL         string
	Username        string
	Password        string
	AssignmentGroup string
	TimeoutSeconds  int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// ReportConfig controls report computation and caching.
type ReportConfig struct {
	CacheKey               string
	RefreshIntervalSeconds int
	JournalWorkers         int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	baseURL := os.Getenv("SERVICENOW_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("SERVICENOW_BASE_URL is required")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	journalWorkers := getEnvAsInt("REPORT_JOURNAL_WORKERS", 4)
	if journalWorkers < 1 {
		journalWorkers = 1
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "triage-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		ServiceNow: ServiceNowConfig{
			BaseURL:         baseURL,
			Username:        os.Getenv("SERVICENOW_USERNAME"),
			Password:        os.Getenv("SERVICENOW_PASSWORD"),
			AssignmentGroup: getEnv("SERVICENOW_ASSIGNMENT_GROUP", ""),
			TimeoutSeconds:  getEnvAsInt("SERVICENOW_TIMEOUT_SECONDS", 15),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Report: ReportConfig{
			CacheKey:               getEnv("REPORT_CACHE_KEY", "high_priority_tickets"),
			RefreshIntervalSeconds: getEnvAsInt("REPORT_REFRESH_INTERVAL_SECONDS", 300),
			JournalWorkers:         journalWorkers,
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", ""),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-request upstream timeout duration.
func (s ServiceNowConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RefreshInterval returns the report recompute period.
func (r ReportConfig) RefreshInterval() time.Duration {
	if r.RefreshIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.RefreshIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
