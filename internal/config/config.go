// Package config provides configuration management for the monitoring application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Fetch         FetchConfig        `mapstructure:"fetch"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Alerts        AlertsConfig       `mapstructure:"alerts"`
	Watchlist     WatchlistConfig    `mapstructure:"watchlist"`
	Storage       StorageConfig      `mapstructure:"storage"`
	UI            UIConfig           `mapstructure:"ui"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Credentials   Credentials        `mapstructure:"-"` // Loaded separately
	Thresholds    Thresholds         `mapstructure:"-"` // Loaded separately

	configDir string
}

// FetchConfig holds upstream fetch configuration.
type FetchConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	Workers        int     `mapstructure:"workers"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	Burst          int     `mapstructure:"burst"`
	UserAgent      string  `mapstructure:"user_agent"`
	LookbackDays   int     `mapstructure:"lookback_days"`
}

// CacheConfig holds per-tracker staleness windows in hours.
type CacheConfig struct {
	DividendsTTLHours   int `mapstructure:"dividends_ttl_hours"`
	EarningsTTLHours    int `mapstructure:"earnings_ttl_hours"`
	OptionsTTLHours     int `mapstructure:"options_ttl_hours"`
	CorrelationTTLHours int `mapstructure:"correlation_ttl_hours"`
	InsiderTTLHours     int `mapstructure:"insider_ttl_hours"`
	RatesTTLHours       int `mapstructure:"rates_ttl_hours"`
}

// AlertsConfig holds alert log configuration.
type AlertsConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// WatchlistConfig holds watchlist configuration.
type WatchlistConfig struct {
	Default []string `mapstructure:"default"`
}

// StorageConfig holds file storage locations.
type StorageConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	ExportDir string `mapstructure:"export_dir"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MinSeverity string        `mapstructure:"min_severity"` // low, medium, high
	Webhook     WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// Credentials holds API credentials.
type Credentials struct {
	FRED  FREDCredentials  `mapstructure:"fred"`
	EDGAR EDGARCredentials `mapstructure:"edgar"`
}

// FREDCredentials holds the FRED API key.
type FREDCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// EDGARCredentials holds the contact details SEC requires in the
// User-Agent header of automated requests.
type EDGARCredentials struct {
	UserAgent string `mapstructure:"user_agent"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stockwatch"
	}
	return filepath.Join(home, ".config", "stockwatch")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// Local .env files may carry API keys during development.
	_ = godotenv.Load()

	cfg := &Config{configDir: configDir}

	// Load main config
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Load classifier thresholds
	if err := loadThresholds(configDir, &cfg.Thresholds); err != nil {
		return nil, fmt.Errorf("loading thresholds.yaml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setFetchDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setFetchDefaults(v *viper.Viper) {
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.workers", 4)
	v.SetDefault("fetch.rate_per_second", 2.0)
	v.SetDefault("fetch.burst", 4)
	v.SetDefault("fetch.lookback_days", 365)
	v.SetDefault("cache.dividends_ttl_hours", 24)
	v.SetDefault("cache.earnings_ttl_hours", 12)
	v.SetDefault("cache.options_ttl_hours", 1)
	v.SetDefault("cache.correlation_ttl_hours", 24)
	v.SetDefault("cache.insider_ttl_hours", 6)
	v.SetDefault("cache.rates_ttl_hours", 12)
	v.SetDefault("alerts.max_entries", 500)
	v.SetDefault("watchlist.default", []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"})
	v.SetDefault("storage.export_dir", ".")
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
	v.SetDefault("notifications.min_severity", "medium")
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.Credentials.FRED.APIKey = v
	}
	if v := os.Getenv("EDGAR_USER_AGENT"); v != "" {
		cfg.Credentials.EDGAR.UserAgent = v
	}
	if v := os.Getenv("STOCKWATCH_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("STOCKWATCH_EXPORT_DIR"); v != "" {
		cfg.Storage.ExportDir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Fetch.TimeoutSeconds < 1 || c.Fetch.TimeoutSeconds > 300 {
		return fmt.Errorf("timeout_seconds must be between 1 and 300")
	}
	if c.Fetch.Workers < 1 || c.Fetch.Workers > 64 {
		return fmt.Errorf("workers must be between 1 and 64")
	}
	if c.Fetch.RatePerSecond <= 0 || c.Fetch.RatePerSecond > 100 {
		return fmt.Errorf("rate_per_second must be between 0 and 100")
	}
	if c.Fetch.LookbackDays < 30 || c.Fetch.LookbackDays > 3650 {
		return fmt.Errorf("lookback_days must be between 30 and 3650")
	}

	ttls := map[string]int{
		"dividends_ttl_hours":   c.Cache.DividendsTTLHours,
		"earnings_ttl_hours":    c.Cache.EarningsTTLHours,
		"options_ttl_hours":     c.Cache.OptionsTTLHours,
		"correlation_ttl_hours": c.Cache.CorrelationTTLHours,
		"insider_ttl_hours":     c.Cache.InsiderTTLHours,
		"rates_ttl_hours":       c.Cache.RatesTTLHours,
	}
	for name, hours := range ttls {
		if hours < 1 || hours > 24 {
			return fmt.Errorf("%s must be between 1 and 24", name)
		}
	}

	if c.Alerts.MaxEntries < 1 || c.Alerts.MaxEntries > 10000 {
		return fmt.Errorf("max_entries must be between 1 and 10000")
	}

	switch c.Notifications.MinSeverity {
	case "", "low", "medium", "high":
	default:
		return fmt.Errorf("invalid min_severity: %s (must be 'low', 'medium' or 'high')", c.Notifications.MinSeverity)
	}

	if err := c.Thresholds.Validate(); err != nil {
		return err
	}

	return nil
}

// ConfigDir returns the directory configuration was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// DataDir returns the directory for caches, watchlists and the alert log.
func (c *Config) DataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return filepath.Join(c.configDir, "data")
}

// CacheDir returns the directory holding per-tracker cache files.
func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir(), "cache")
}

// WatchlistDir returns the directory holding watchlist files.
func (c *Config) WatchlistDir() string {
	return filepath.Join(c.DataDir(), "watchlists")
}

// AlertLogPath returns the path of the rolling alert log.
func (c *Config) AlertLogPath() string {
	return filepath.Join(c.DataDir(), "alerts.json")
}

// HistoryDBPath returns the path of the price history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir(), "history.db")
}

// LogPath returns the path of the rotating application log.
func (c *Config) LogPath() string {
	return filepath.Join(c.configDir, "logs", "stockwatch.log")
}

// FetchTimeout returns the per-command fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// CacheTTL returns the staleness window for a tracker.
func (c *Config) CacheTTL(tracker string) time.Duration {
	hours := 24
	switch tracker {
	case "dividends":
		hours = c.Cache.DividendsTTLHours
	case "earnings":
		hours = c.Cache.EarningsTTLHours
	case "options":
		hours = c.Cache.OptionsTTLHours
	case "correlation":
		hours = c.Cache.CorrelationTTLHours
	case "insider":
		hours = c.Cache.InsiderTTLHours
	case "rates":
		hours = c.Cache.RatesTTLHours
	}
	return time.Duration(hours) * time.Hour
}
