// Package config provides configuration for the LMS binaries
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Reminder ReminderConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port of the Redis server
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// StorageConfig holds upload storage settings.
// The object store is used only when OSS.Enabled() reports true.
type StorageConfig struct {
	UploadDir     string
	PublicBaseURL string
	MaxUploadSize int64
	OSS           OSSConfig
}

// OSSConfig holds Alibaba Cloud OSS settings
type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Prefix          string
}

// Enabled reports whether enough settings are present to build an OSS client
func (c OSSConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// ReminderConfig holds the daily reminder schedule
type ReminderConfig struct {
	Cron     string
	Timezone string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	godotenv.Load()

	cfg := &Config{}
	var err error

	// Database configuration
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	dbPortStr, err := requireEnv("DB_PORT")
	if err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = strconv.Atoi(dbPortStr); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	if cfg.Database.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}

	cfg.Logging.Level = envOrDefault("LOG_LEVEL", "info")
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	if cfg.JWT.Secret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWT.AccessTokenExpiry, err = durationEnv("JWT_ACCESS_TOKEN_EXPIRY", time.Hour); err != nil {
		return nil, err
	}

	// Redis configuration (scheduler and worker)
	cfg.Redis.Host = envOrDefault("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = intEnv("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// SMTP configuration (worker)
	cfg.SMTP.Host = envOrDefault("SMTP_HOST", "localhost")
	if cfg.SMTP.Port, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = envOrDefault("SMTP_FROM", "noreply@lms.local")

	// Storage configuration
	cfg.Storage.UploadDir = envOrDefault("UPLOAD_DIR", "uploads")
	cfg.Storage.PublicBaseURL = strings.TrimRight(envOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/")
	maxUpload, err := intEnv("MAX_UPLOAD_SIZE", 50<<20)
	if err != nil {
		return nil, err
	}
	cfg.Storage.MaxUploadSize = int64(maxUpload)
	cfg.Storage.OSS = OSSConfig{
		Endpoint:        os.Getenv("OSS_ENDPOINT"),
		AccessKeyID:     os.Getenv("OSS_ACCESS_KEY_ID"),
		AccessKeySecret: os.Getenv("OSS_ACCESS_KEY_SECRET"),
		Bucket:          os.Getenv("OSS_BUCKET"),
		Prefix:          strings.Trim(envOrDefault("OSS_PREFIX", "uploads"), "/"),
	}

	// Reminder configuration (scheduler)
	cfg.Reminder.Cron = envOrDefault("REMINDER_CRON", "0 9 * * *")
	cfg.Reminder.Timezone = envOrDefault("REMINDER_TIMEZONE", "UTC")

	return cfg, nil
}

// DSN returns the database connection string.
// clientFoundRows makes UPDATE report matched rows, so an unchanged row is not mistaken for a missing one.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func envOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// parseOrigins splits a comma-separated origin list; empty input allows all origins
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
