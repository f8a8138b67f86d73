// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	DBURL           string        `mapstructure:"DB_URL"`
	GithubToken     string        `mapstructure:"GITHUB_TOKEN"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR"`
	PageDelay       time.Duration `mapstructure:"PAGE_DELAY"`
	FetchTimeout    time.Duration `mapstructure:"FETCH_TIMEOUT"`
	SyncTimeout     time.Duration `mapstructure:"SYNC_TIMEOUT"`
	NotifyTimeout   time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	MaxCompareRepos int           `mapstructure:"MAX_COMPARE_REPOS"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("PAGE_DELAY", "100ms")
	viper.SetDefault("FETCH_TIMEOUT", "10s")
	viper.SetDefault("SYNC_TIMEOUT", "30m")
	viper.SetDefault("NOTIFY_TIMEOUT", "5s")
	viper.SetDefault("MAX_COMPARE_REPOS", 5)

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.MaxCompareRepos <= 0 {
		return nil, errors.New("MAX_COMPARE_REPOS must be a positive integer")
	}

	return &cfg, nil
}
