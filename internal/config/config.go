// Package config loads and validates the YAML configuration. Credentials and
// endpoints live here exclusively; business logic never reads the
// environment on its own.
package config

import (
	"fmt"
	"strings"
	"time"

	"gatilho/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the root configuration object, built once at startup and passed
// by reference into every constructor.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Store     StoreConfig     `mapstructure:"store"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
}

type ProvidersConfig struct {
	Binance      BinanceConfig `mapstructure:"binance"`
	AlphaVantage APIConfig     `mapstructure:"alphavantage"`
	Polygon      APIConfig     `mapstructure:"polygon"`
	TradingView  APIConfig     `mapstructure:"tradingview"`
}

type BinanceConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type APIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type JobsConfig struct {
	MaxConcurrent   int `mapstructure:"max_concurrent"`
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
	RateLimitPerMin int `mapstructure:"rate_limit_per_min"`
}

func (c JobsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

type StoreConfig struct {
	// Path of the job-history SQLite file; empty disables persistence.
	Path string `mapstructure:"path"`
}

// Load reads, decodes and validates the config file.
func Load(path string) (*Config, error) {
	v, err := read(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch reloads the file on change and invokes fn with the fresh config.
// Decode failures keep the previous configuration and are only logged.
func Watch(path string, fn func(*Config)) error {
	v, err := read(path)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			logger.Warnf("[config] reload of %s failed: %v", e.Name, err)
			return
		}
		logger.Infof("[config] reloaded %s", e.Name)
		fn(cfg)
	})
	v.WatchConfig()
	return nil
}

func read(path string) (*viper.Viper, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8000"
	}
	if c.Reports.Dir == "" {
		c.Reports.Dir = "reports"
	}
	if c.Jobs.MaxConcurrent <= 0 {
		c.Jobs.MaxConcurrent = 2
	}
	if c.Jobs.TimeoutSeconds <= 0 {
		c.Jobs.TimeoutSeconds = 600
	}
	if c.Jobs.RateLimitPerMin <= 0 {
		c.Jobs.RateLimitPerMin = 300
	}
}

func validate(c *Config) error {
	if c.Jobs.MaxConcurrent > 64 {
		return fmt.Errorf("jobs.max_concurrent %d is unreasonably high", c.Jobs.MaxConcurrent)
	}
	if strings.ContainsAny(c.Reports.Dir, "\x00") {
		return fmt.Errorf("reports.dir contains invalid characters")
	}
	return nil
}
