package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	ResumeAPI ResumeAPIConfig
	Guest     GuestConfig
	Migration MigrationConfig
	Events    EventsConfig
	App       AppConfig
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ResumeAPIConfig points at the authenticated resume backend.
type ResumeAPIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	RefreshPath string
	RPS         float64
	Burst       int
}

type GuestConfig struct {
	DraftTTL     time.Duration
	CookieName   string
	CookieSecure bool
	RateLimitRPS float64
	DirtyIdle    time.Duration
}

type MigrationConfig struct {
	RunTTL          time.Duration
	LockTTL         time.Duration
	AuditRetention  time.Duration
	JanitorSchedule string
}

// EventsConfig enables the AMQP publisher when URL is set.
type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	LogFormat   string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", true),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "resume_builder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		ResumeAPI: ResumeAPIConfig{
			BaseURL:     strings.TrimRight(getEnv("RESUME_API_BASE_URL", "http://localhost:8000/api/v1"), "/"),
			Timeout:     getEnvAsDuration("RESUME_API_TIMEOUT", 30*time.Second),
			RefreshPath: getEnv("RESUME_API_REFRESH_PATH", "/auth/refresh/"),
			RPS:         getEnvAsFloat("RESUME_API_RPS", 20),
			Burst:       getEnvAsInt("RESUME_API_BURST", 10),
		},
		Guest: GuestConfig{
			DraftTTL:     getEnvAsDuration("GUEST_DRAFT_TTL", 30*24*time.Hour),
			CookieName:   getEnv("GUEST_COOKIE_NAME", "guest_id"),
			CookieSecure: getEnvAsBool("GUEST_COOKIE_SECURE", false),
			RateLimitRPS: getEnvAsFloat("GUEST_RATE_LIMIT_RPS", 10),
			DirtyIdle:    getEnvAsDuration("DIRTY_IDLE_TIMEOUT", 2*time.Hour),
		},
		Migration: MigrationConfig{
			RunTTL:          getEnvAsDuration("MIGRATION_RUN_TTL", 24*time.Hour),
			LockTTL:         getEnvAsDuration("MIGRATION_LOCK_TTL", 5*time.Minute),
			AuditRetention:  getEnvAsDuration("MIGRATION_AUDIT_RETENTION", 90*24*time.Hour),
			JanitorSchedule: getEnv("JANITOR_SCHEDULE", "0 30 3 * * *"),
		},
		Events: EventsConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "resume.events"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.ResumeAPI.BaseURL == "" {
		return fmt.Errorf("RESUME_API_BASE_URL is required")
	}
	if !strings.HasPrefix(c.ResumeAPI.BaseURL, "http://") && !strings.HasPrefix(c.ResumeAPI.BaseURL, "https://") {
		return fmt.Errorf("RESUME_API_BASE_URL must be an http(s) URL")
	}

	if c.ResumeAPI.RPS <= 0 || c.ResumeAPI.Burst <= 0 {
		return fmt.Errorf("RESUME_API_RPS and RESUME_API_BURST must be positive")
	}

	if c.Guest.DraftTTL <= 0 {
		return fmt.Errorf("GUEST_DRAFT_TTL must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
