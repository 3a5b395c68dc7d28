package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SNACKBAR_SERVER_PORT
const EnvPrefix = "SNACKBAR"

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Insight InsightConfig `mapstructure:"insight"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds Open Food Facts configuration
type CatalogConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PageSize  int           `mapstructure:"page_size"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second
	RateBurst int           `mapstructure:"rate_burst"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// InsightConfig holds Gemini configuration
type InsightConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "console" or "json"
	Level  string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/snackbar/")

	// Environment variable settings
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the
// environment take precedence over the file.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5173")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Catalog defaults
	v.SetDefault("catalog.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("catalog.timeout", "20s")
	v.SetDefault("catalog.page_size", 12)
	v.SetDefault("catalog.rate_limit", 10)
	v.SetDefault("catalog.rate_burst", 10)

	// Cache defaults
	v.SetDefault("cache.ttl", "5m")

	// Insight defaults
	v.SetDefault("insight.api_key", "")
	v.SetDefault("insight.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("insight.model", "gemini-2.5-flash")
	v.SetDefault("insight.max_output_tokens", 3072)
	v.SetDefault("insight.timeout", "30s")

	// Log defaults
	v.SetDefault("log.format", "console")
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set %s_SERVER_PORT)", EnvPrefix)
	}

	if err := validateBaseURL("catalog base URL", config.Catalog.BaseURL); err != nil {
		return err
	}
	if config.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog timeout must be positive, got: %s", config.Catalog.Timeout)
	}
	if config.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog page size must be positive, got: %d", config.Catalog.PageSize)
	}
	if config.Catalog.RateLimit <= 0 {
		return fmt.Errorf("catalog rate limit must be positive, got: %g", config.Catalog.RateLimit)
	}
	if config.Catalog.RateBurst <= 0 {
		return fmt.Errorf("catalog rate burst must be positive, got: %d", config.Catalog.RateBurst)
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if err := validateBaseURL("insight base URL", config.Insight.BaseURL); err != nil {
		return err
	}
	if config.Insight.Model == "" {
		return fmt.Errorf("insight model is required (set %s_INSIGHT_MODEL)", EnvPrefix)
	}
	if config.Insight.MaxOutputTokens <= 0 {
		return fmt.Errorf("insight max output tokens must be positive, got: %d", config.Insight.MaxOutputTokens)
	}
	if config.Insight.Timeout <= 0 {
		return fmt.Errorf("insight timeout must be positive, got: %s", config.Insight.Timeout)
	}

	if config.Log.Format != "console" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}
	if _, err := zerolog.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log level is invalid: %w", err)
	}

	return nil
}

func validateBaseURL(name, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got: %q", name, raw)
	}
	return nil
}

// LogLevel returns the parsed log level, defaulting to info
func (c LogConfig) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		return zerolog.InfoLevel
	}
	return level
}
