// Package config loads the pfc configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/eodhd"
)

// Quote configures the intraday quote of a symbol.
type Quote struct {
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

// Config holds all application configuration.
type Config struct {
	DisplayCurrency string `yaml:"display_currency"`
	Store           struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`
	EODHD struct {
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
		CacheDir string `yaml:"cache_dir"`
	} `yaml:"eodhd"`
	Binance struct {
		APIKey    string `yaml:"api_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"binance"`
	Batch struct {
		Window  time.Duration `yaml:"window"`
		MaxSize int           `yaml:"max_size"`
	} `yaml:"batch"`
	Server struct {
		Addr        string `yaml:"addr"`
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"server"`
	Chart struct {
		Days          int `yaml:"days"`
		ThumbnailSize int `yaml:"thumbnail_size"`
	} `yaml:"chart"`
	Quotes map[string]Quote `yaml:"quotes"`
	Log    struct {
		Development bool   `yaml:"development"`
		Level       string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads the .env file next to the working directory if any, then the
// YAML file at path if it exists, then applies environment variable
// overrides and finally defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}
	cfg.defaults()
	return cfg, nil
}

// fromEnv applies environment variable overrides.
func (c *Config) fromEnv() error {
	// DATABASE_URL implies postgres unless a driver is set explicitly.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.Driver = "postgres"
		c.Store.DSN = v
	}
	str := map[string]*string{
		"PFC_DISPLAY_CURRENCY": &c.DisplayCurrency,
		"PFC_STORE_DRIVER":     &c.Store.Driver,
		"PFC_STORE_DSN":        &c.Store.DSN,
		"EODHD_API_KEY":        &c.EODHD.APIKey,
		"PFC_EODHD_BASE_URL":   &c.EODHD.BaseURL,
		"PFC_CACHE_DIR":        &c.EODHD.CacheDir,
		"BINANCE_API_KEY":      &c.Binance.APIKey,
		"BINANCE_SECRET_KEY":   &c.Binance.SecretKey,
		"PFC_ADDR":             &c.Server.Addr,
		"PFC_REFRESH_CRON":     &c.Server.RefreshCron,
		"PFC_LOG_LEVEL":        &c.Log.Level,
	}
	for name, field := range str {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("PFC_BATCH_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PFC_BATCH_WINDOW: %w", err)
		}
		c.Batch.Window = d
	}
	ints := map[string]*int{
		"PFC_BATCH_MAX_SIZE":       &c.Batch.MaxSize,
		"PFC_CHART_DAYS":           &c.Chart.Days,
		"PFC_CHART_THUMBNAIL_SIZE": &c.Chart.ThumbnailSize,
	}
	for name, field := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*field = n
		}
	}
	if v := os.Getenv("PFC_LOG_DEVELOPMENT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PFC_LOG_DEVELOPMENT: %w", err)
		}
		c.Log.Development = b
	}
	return nil
}

func (c *Config) defaults() {
	if c.DisplayCurrency == "" {
		c.DisplayCurrency = "USD"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.DSN == "" && c.Store.Driver == "sqlite" {
		c.Store.DSN = "pfc.db"
	}
	if c.EODHD.BaseURL == "" {
		c.EODHD.BaseURL = eodhd.DefaultBaseURL
	}
	if c.Batch.Window == 0 {
		c.Batch.Window = 10 * time.Millisecond
	}
	if c.Batch.MaxSize == 0 {
		c.Batch.MaxSize = 20
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RefreshCron == "" {
		c.Server.RefreshCron = "0 0 7 * * *"
	}
	if c.Chart.Days == 0 {
		c.Chart.Days = 365
	}
	if c.Chart.ThumbnailSize == 0 {
		c.Chart.ThumbnailSize = portfolio.DefaultThumbnailSize
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if err := portfolio.ValidateCurrency(c.DisplayCurrency); err != nil {
		return fmt.Errorf("display_currency: %w", err)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if c.Batch.Window < 0 {
		return fmt.Errorf("batch.window must not be negative")
	}
	if c.Batch.MaxSize < 0 {
		return fmt.Errorf("batch.max_size must not be negative")
	}
	if c.Chart.Days <= 0 {
		return fmt.Errorf("chart.days must be positive")
	}
	if c.Chart.ThumbnailSize <= 0 {
		return fmt.Errorf("chart.thumbnail_size must be positive")
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Server.RefreshCron); err != nil {
		return fmt.Errorf("server.refresh_cron: %w", err)
	}
	if c.Log.Level != "" {
		if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	for symbol, q := range c.Quotes {
		if q.URL == "" || q.Path == "" {
			return fmt.Errorf("quotes.%s: url and path are required", symbol)
		}
	}
	return nil
}

// Logger builds the logger: development loggers are human readable and
// log at debug level unless log.level says otherwise.
func (c *Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Log.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = level
	}
	return zc.Build()
}
