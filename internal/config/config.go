package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultAPIBaseURL is the root of the Copper developer API.
	DefaultAPIBaseURL = "https://api.copper.com/developer_api/v1/"

	// DefaultAppHost is the host of the Copper web app, used for record URLs.
	DefaultAppHost = "app.copper.com"

	// DefaultPageSize is the number of records requested per sync page.
	DefaultPageSize = 50

	// MaxPageSize is the API's page size ceiling.
	MaxPageSize = 200

	// MaxReferenceTTLSeconds bounds how stale cached reference data may be.
	MaxReferenceTTLSeconds = 3600
)

// Config holds all configuration for copper-pack.
type Config struct {
	Copper    CopperConfig    `mapstructure:"copper"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	API       APIConfig       `mapstructure:"api"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// CopperConfig holds Copper API settings and default credentials.
type CopperConfig struct {
	APIKey         string `mapstructure:"api_key"`
	UserEmail      string `mapstructure:"user_email"`
	APIBaseURL     string `mapstructure:"api_base_url"`
	AppHost        string `mapstructure:"app_host"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// String returns a safe representation of CopperConfig with the API key masked.
func (c CopperConfig) String() string {
	return fmt.Sprintf("CopperConfig{APIKey:%s, UserEmail:%s, APIBaseURL:%s}", maskAPIKey(c.APIKey), c.UserEmail, c.APIBaseURL)
}

// Timeout returns the per-request HTTP timeout.
func (c CopperConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HasCredentials reports whether both default credentials are set.
func (c CopperConfig) HasCredentials() bool {
	return c.APIKey != "" && c.UserEmail != ""
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// SyncConfig holds table sync settings.
type SyncConfig struct {
	PageSize      int    `mapstructure:"page_size"`
	SortBy        string `mapstructure:"sort_by"`
	SortDirection string `mapstructure:"sort_direction"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Driver              string `mapstructure:"driver"` // memory | sqlite | none
	Path                string `mapstructure:"path"`
	ReferenceTTLSeconds int    `mapstructure:"reference_ttl_seconds"`
	UsersTTLSeconds     int    `mapstructure:"users_ttl_seconds"`
}

// ReferenceTTL is how long reference collections may be served from cache.
func (c CacheConfig) ReferenceTTL() time.Duration {
	return time.Duration(c.ReferenceTTLSeconds) * time.Second
}

// UsersTTL is how long the user list may be served from cache.
func (c CacheConfig) UsersTTL() time.Duration {
	return time.Duration(c.UsersTTLSeconds) * time.Second
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// TelemetryConfig holds OpenTelemetry exporter settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

// Load reads configuration from .env, the config file and environment variables.
func Load() (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("copper.api_key", "")
	v.SetDefault("copper.user_email", "")
	v.SetDefault("copper.api_base_url", DefaultAPIBaseURL)
	v.SetDefault("copper.app_host", DefaultAppHost)
	v.SetDefault("copper.timeout_seconds", 30)

	v.SetDefault("sync.page_size", DefaultPageSize)
	v.SetDefault("sync.sort_by", "date_created")
	v.SetDefault("sync.sort_direction", "asc")

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.path", filepath.Join(homeDir(), ".copper-pack", "cache.db"))
	v.SetDefault("cache.reference_ttl_seconds", 3600)
	v.SetDefault("cache.users_ttl_seconds", 300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", false)

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".copper-pack"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("COPPER_PACK")
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("copper.api_key", "COPPER_API_KEY")
	_ = v.BindEnv("copper.user_email", "COPPER_USER_EMAIL")
	_ = v.BindEnv("copper.api_base_url", "COPPER_PACK_COPPER_API_BASE_URL")
	_ = v.BindEnv("sync.page_size", "COPPER_PACK_SYNC_PAGE_SIZE")
	_ = v.BindEnv("cache.driver", "COPPER_PACK_CACHE_DRIVER")
	_ = v.BindEnv("cache.path", "COPPER_PACK_CACHE_PATH")
	_ = v.BindEnv("api.listen_addr", "COPPER_PACK_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "COPPER_PACK_API_AUTH_TOKEN")
	_ = v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
// Credentials are not required here; commands that call Copper check them.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Copper.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("copper.api_base_url must be an absolute URL")
	}
	if c.Copper.AppHost == "" {
		return fmt.Errorf("copper.app_host must not be empty")
	}
	if c.Copper.TimeoutSeconds <= 0 {
		return fmt.Errorf("copper.timeout_seconds must be greater than 0")
	}
	if c.Sync.PageSize <= 0 || c.Sync.PageSize > MaxPageSize {
		return fmt.Errorf("sync.page_size must be between 1 and %d", MaxPageSize)
	}
	if c.Sync.SortDirection != "asc" && c.Sync.SortDirection != "desc" {
		return fmt.Errorf("sync.sort_direction must be asc or desc")
	}
	switch c.Cache.Driver {
	case "memory", "none":
	case "sqlite":
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path must not be empty when cache.driver is sqlite")
		}
	default:
		return fmt.Errorf("cache.driver must be one of memory, sqlite, none")
	}
	if c.Cache.ReferenceTTLSeconds < 0 || c.Cache.ReferenceTTLSeconds > MaxReferenceTTLSeconds {
		return fmt.Errorf("cache.reference_ttl_seconds must be between 0 and %d", MaxReferenceTTLSeconds)
	}
	if c.Cache.UsersTTLSeconds < 0 || c.Cache.UsersTTLSeconds > c.Cache.ReferenceTTLSeconds {
		return fmt.Errorf("cache.users_ttl_seconds must be between 0 and cache.reference_ttl_seconds")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
