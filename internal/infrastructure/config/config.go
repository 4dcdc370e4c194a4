// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg, err := config.LoadOrEnv()
//	rulesPath := cfg.Clearing.RulesPath
//	dbPath := cfg.Storage.DatabasePath
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Clearing      ClearingConfig      `yaml:"clearing"`
	Data          DataConfig          `yaml:"data"`
	Posting       PostingConfig       `yaml:"posting"`
	Storage       StorageConfig       `yaml:"storage"`
	Reports       ReportsConfig       `yaml:"reports"`
	Notifications NotificationsConfig `yaml:"notifications"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ClearingConfig holds rule-file location and the fiscal calendar
type ClearingConfig struct {
	RulesPath string   `yaml:"rules_path"`
	Holidays  []string `yaml:"holidays"` // recurring, "dd.mm" format
}

// DataConfig holds raw export handling settings
type DataConfig struct {
	ExportDir string `yaml:"export_dir"`
	// ExportName is the export file name pattern; $entity$ and $country$
	// are substituted per entity.
	ExportName string `yaml:"export_name"`
}

// PostingConfig holds the posting service connection settings
type PostingConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig holds run-history database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ReportsConfig holds clearing report settings
type ReportsConfig struct {
	LocalDir        string `yaml:"local_dir"`
	NetDir          string `yaml:"net_dir"`
	NetSubdirFormat string `yaml:"net_subdir_format"`
	// Name is the report file name pattern; $entity$ and $country$ are
	// substituted per entity.
	Name      string `yaml:"name"`
	SheetName string `yaml:"sheet_name"`
}

// NotificationsConfig holds user notification settings
type NotificationsConfig struct {
	Send         bool         `yaml:"send"`
	Sender       string       `yaml:"sender"`
	Subject      string       `yaml:"subject"`
	SMTPHost     string       `yaml:"smtp_host"`
	SMTPPort     int          `yaml:"smtp_port"`
	SMTPUser     string       `yaml:"smtp_user"`
	SMTPPassword string       `yaml:"smtp_password"`
	Users        []UserConfig `yaml:"users"`
}

// UserConfig describes one notification recipient and the entities they own
type UserConfig struct {
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Send     bool     `yaml:"send"`
	Entities []string `yaml:"entities"`
}

// APIConfig holds results API server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${SMTP_SENDER})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	return &Config{
		Clearing: ClearingConfig{
			RulesPath: getEnv("CLEARING_RULES_PATH", "rules.yaml"),
		},
		Data: DataConfig{
			ExportDir:  getEnv("CLEARING_EXPORT_DIR", "exports"),
			ExportName: getEnv("CLEARING_EXPORT_NAME", "open_items_$entity$_$country$.txt"),
		},
		Posting: PostingConfig{
			Endpoint:       os.Getenv("CLEARING_POSTING_ENDPOINT"),
			APIKey:         os.Getenv("CLEARING_POSTING_API_KEY"),
			TimeoutSeconds: getEnvInt("CLEARING_POSTING_TIMEOUT", 60),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("CLEARING_DB_PATH", "clearing_runs.db"),
		},
		Notifications: NotificationsConfig{
			Sender:   os.Getenv("CLEARING_MAIL_SENDER"),
			SMTPHost: os.Getenv("CLEARING_SMTP_HOST"),
			SMTPPort: getEnvInt("CLEARING_SMTP_PORT", 25),
		},
		Reports: ReportsConfig{
			LocalDir:        getEnv("CLEARING_REPORT_DIR", "reports"),
			NetDir:          os.Getenv("CLEARING_REPORT_NET_DIR"),
			NetSubdirFormat: getEnv("CLEARING_REPORT_SUBDIR_FORMAT", "2006-01"),
			Name:            getEnv("CLEARING_REPORT_NAME", "clearing_$entity$_$country$.xlsx"),
			SheetName:       getEnv("CLEARING_REPORT_SHEET", "Cleared items"),
		},
		API: APIConfig{
			Port: getEnvInt("CLEARING_API_PORT", 8080),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() (*Config, error) {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path. A missing file
// falls back to environment variables; a file that exists but cannot be
// parsed is an error, never silently replaced by env defaults.
func LoadOrEnvWithPath(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return LoadFromEnv(), nil
	}
	return nil, fmt.Errorf("config file %s: %w", path, err)
}

// HolidayDates parses the configured recurring holidays ("dd.mm") into
// dates. The year is insignificant and fixed to a leap year so 29.02 stays
// representable.
func (c ClearingConfig) HolidayDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := time.Parse("02.01.2006", h+".2000")
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", h, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// ExpandName substitutes the $entity$ and $country$ placeholders of a file
// name pattern.
func ExpandName(pattern, entity, country string) string {
	out := strings.ReplaceAll(pattern, "$entity$", entity)
	return strings.ReplaceAll(out, "$country$", country)
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
