package config

import (
	"fmt"
	"os"
	"strconv"

	"pricesheet/adapters/excel"
	"pricesheet/internal/errors"
)

// DefaultMaxUploadBytes caps each uploaded spreadsheet
const DefaultMaxUploadBytes = 16 * 1024 * 1024

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Excel    ExcelConfig
	Database DatabaseConfig
	LogLevel string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// UploadConfig holds limits and scratch location for uploaded files
type UploadConfig struct {
	MaxBytes   int64
	ScratchDir string
}

// ExcelConfig holds spreadsheet parsing settings
type ExcelConfig struct {
	HeaderRow int
	SheetName string
}

// DatabaseConfig holds the optional audit database connection
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether run auditing should be wired
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Upload:   *loadUploadConfig(),
		Excel:    *loadExcelConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxBytes:   getEnvInt64OrDefault("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		ScratchDir: getEnvOrDefault("SCRATCH_DIR", ""),
	}
}

func loadExcelConfig() *ExcelConfig {
	return &ExcelConfig{
		HeaderRow: getEnvIntOrDefault("HEADER_ROW", excel.DefaultHeaderRow),
		SheetName: getEnvOrDefault("SHEET_NAME", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Upload.MaxBytes <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("MAX_UPLOAD_BYTES must be positive, got %d", config.Upload.MaxBytes))
	}
	if config.Excel.HeaderRow < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("HEADER_ROW must be >= 0, got %d", config.Excel.HeaderRow))
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// ReaderConfig converts the excel settings into the adapter's config
func (c *Config) ReaderConfig() excel.ExcelConfig {
	cfg := excel.DefaultExcelConfig()
	cfg.HeaderRow = c.Excel.HeaderRow
	cfg.SheetName = c.Excel.SheetName
	return cfg
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
