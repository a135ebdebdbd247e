package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the attribution gateway.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Klaviyo  KlaviyoConfig  `yaml:"klaviyo"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	Cache    CacheConfig    `yaml:"cache"`

	// TimeframePresets is the set of named timeframe keys accepted by the
	// API and passed through to the upstream reporting endpoints.
	TimeframePresets []string `yaml:"timeframe_presets"`
}

// AllowsTimeframeKey reports whether the named preset is accepted.
func (c *Config) AllowsTimeframeKey(key string) bool {
	for _, k := range c.TimeframePresets {
		if k == key {
			return true
		}
	}
	return false
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the tenant-store Postgres connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the cache backend connection. An empty Addr means the
// gateway falls back to the in-memory cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KlaviyoConfig holds upstream reporting API settings. Per-tenant API keys
// come from the secret resolver, never from here.
type KlaviyoConfig struct {
	BaseURL        string `yaml:"base_url"`
	Revision       string `yaml:"revision"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the per-upstream-call deadline.
func (c KlaviyoConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SecretsConfig controls credential resolution.
type SecretsConfig struct {
	// Region for the managed secret store.
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"`

	// DevMode enables the environment-variable credential fallback. Never
	// enable in production.
	DevMode bool `yaml:"dev_mode"`

	// DevEnvPrefix namespaces the dev-mode variables, e.g. prefix
	// "KLAVIYO_KEY" + tenant "acme-co" → KLAVIYO_KEY_ACME_CO.
	DevEnvPrefix string `yaml:"dev_env_prefix"`
}

// CacheConfig controls attribution-result memoization. A single TTL applies
// uniformly; there is no per-entry override.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// TTL returns the uniform cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Klaviyo.BaseURL == "" {
		c.Klaviyo.BaseURL = "https://a.klaviyo.com"
	}
	if c.Klaviyo.Revision == "" {
		c.Klaviyo.Revision = "2024-10-15"
	}
	if c.Klaviyo.TimeoutSeconds == 0 {
		c.Klaviyo.TimeoutSeconds = 30
	}
	if c.Klaviyo.MaxRetries == 0 {
		c.Klaviyo.MaxRetries = 2
	}
	if c.Secrets.AWSRegion == "" {
		c.Secrets.AWSRegion = "us-west-2"
	}
	if c.Secrets.DevEnvPrefix == "" {
		c.Secrets.DevEnvPrefix = "KLAVIYO_KEY"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if len(c.TimeframePresets) == 0 {
		c.TimeframePresets = []string{
			"today", "yesterday",
			"last_7_days", "last_30_days", "last_90_days",
			"this_month", "last_month",
		}
	}
}

// LoadFromEnv loads the YAML config and overrides it with environment
// variables. A .env file is honored if present.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("KLAVIYO_BASE_URL"); v != "" {
		cfg.Klaviyo.BaseURL = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Secrets.AWSRegion = v
	}
	if v := os.Getenv("AWS_PROFILE"); v != "" {
		cfg.Secrets.AWSProfile = v
	}
	if os.Getenv("DEV_MODE") == "true" {
		cfg.Secrets.DevMode = true
	}

	return cfg, nil
}

// Default returns a usable configuration without a YAML file, for tests and
// local development.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (or set DATABASE_URL)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
