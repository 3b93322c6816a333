package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads configuration for integration tests from TEST_* variables.
// When the database variables are incomplete an empty Config is returned so tests can fall back to a default DSN.
func LoadTestConfig() (*Config, error) {
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.JWT.Secret = envOrDefault("TEST_JWT_SECRET", "integration-test-secret")
	cfg.JWT.AccessTokenExpiry = time.Hour
	cfg.Storage.UploadDir = envOrDefault("TEST_UPLOAD_DIR", os.TempDir())
	cfg.Storage.PublicBaseURL = "http://localhost:8080"
	cfg.Storage.MaxUploadSize = 10 << 20

	keys := []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"}
	for _, key := range keys {
		if os.Getenv(key) == "" {
			return cfg, nil
		}
	}

	port, err := strconv.Atoi(os.Getenv("TEST_DB_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database = DatabaseConfig{
		Host:     os.Getenv("TEST_DB_HOST"),
		Port:     port,
		User:     os.Getenv("TEST_DB_USER"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		DBName:   os.Getenv("TEST_DB_NAME"),
	}

	return cfg, nil
}
