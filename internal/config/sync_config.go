package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	// ============ BASIC SETTINGS ============
	Enabled    bool   `json:"enabled"`
	APIBaseURL string `json:"api_base_url"` // authoritative server, e.g. https://api.example.com
	InstanceID string `json:"instance_id"`  // device identity sent as user_id

	// ============ SCHEDULING ============
	AutoSyncEnabled  bool `json:"auto_sync_enabled"`
	AutoSyncInterval int  `json:"auto_sync_interval"` // seconds
	SyncOnStartup    bool `json:"sync_on_startup"`

	// ============ LIMITS ============
	PageSize    int `json:"page_size"`    // records per download page
	SyncTimeout int `json:"sync_timeout"` // seconds, per HTTP request
	MaxRetries  int `json:"max_retries"`  // failed-operation replay attempts per cycle

	// ============ TABLES ============
	Tables map[string]TableSyncConfig `json:"tables"`
}

// TableSyncConfig holds sync configuration for one table
type TableSyncConfig struct {
	Enabled  bool `json:"enabled"`
	PageSize int  `json:"page_size"` // 0 = use global PageSize
}

// LoadSyncConfig loads sync configuration from a JSON file when
// SYNC_CONFIG_PATH is set, otherwise from environment with defaults.
func LoadSyncConfig() *SyncConfig {
	if configPath := os.Getenv("SYNC_CONFIG_PATH"); configPath != "" {
		if cfg, err := loadSyncConfigFromFile(configPath); err == nil {
			return cfg
		} else {
			log.Printf("⚠️ Could not load sync config from %s: %v, using defaults", configPath, err)
		}
	}
	return defaultSyncConfig()
}

// loadSyncConfigFromFile loads sync config from a JSON file
func loadSyncConfigFromFile(path string) (*SyncConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultSyncConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultSyncConfig returns the environment-driven defaults
func defaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Enabled:          getEnv("SYNC_ENABLED", "true") == "true",
		APIBaseURL:       os.Getenv("SYNC_API_URL"),
		InstanceID:       os.Getenv("INSTANCE_ID"),
		AutoSyncEnabled:  getEnv("AUTO_SYNC_ENABLED", "true") == "true",
		AutoSyncInterval: getEnvInt("AUTO_SYNC_INTERVAL", 900),
		SyncOnStartup:    getEnv("SYNC_ON_STARTUP", "true") == "true",
		PageSize:         getEnvInt("SYNC_PAGE_SIZE", 100),
		SyncTimeout:      getEnvInt("SYNC_TIMEOUT", 30),
		MaxRetries:       getEnvInt("SYNC_MAX_RETRIES", 3),
		Tables:           map[string]TableSyncConfig{},
	}
}

// TableEnabled reports whether a table takes part in the sync cycle.
// Tables absent from the config default to enabled.
func (c *SyncConfig) TableEnabled(table string) bool {
	tc, ok := c.Tables[table]
	if !ok {
		return true
	}
	return tc.Enabled
}

// TablePageSize returns the page size for a table.
func (c *SyncConfig) TablePageSize(table string) int {
	if tc, ok := c.Tables[table]; ok && tc.PageSize > 0 {
		return tc.PageSize
	}
	if c.PageSize > 0 {
		return c.PageSize
	}
	return 100
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
