package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	DataDir   string
	Database  DatabaseConfig
	Sync      *SyncConfig
}

// DatabaseConfig holds local store configuration
type DatabaseConfig struct {
	Path    string // SQLite file path
	Verbose bool   // log every statement
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3001"),
		JWTSecret: jwtSecret,
		DataDir:   dataDir,
		Database: DatabaseConfig{
			Path:    getEnv("DB_PATH", filepath.Join(dataDir, "fieldops.db")),
			Verbose: getEnv("DB_VERBOSE", "false") == "true",
		},
		Sync: LoadSyncConfig(),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
