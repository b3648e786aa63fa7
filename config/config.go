package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Cart      CartConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Matching  MatchingConfig
	Rules     RulesConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig locates the offer catalog database
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// CartConfig holds cart persistence and supplier-minimum handling
type CartConfig struct {
	Path          string  `mapstructure:"path"`
	TopUpFraction float64 `mapstructure:"topup_fraction"`
	MaxTopUpSteps int     `mapstructure:"max_topup_steps"`
}

// CacheConfig holds decision-cache configuration
type CacheConfig struct {
	Type          string        `mapstructure:"type"` // "memory" or "redis"
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute per client IP
	Burst int `mapstructure:"burst"`
}

// MatchingConfig holds the engine thresholds exposed to operations
type MatchingConfig struct {
	StrictThreshold float64 `mapstructure:"strict_threshold"`
	BrandThreshold  float64 `mapstructure:"brand_threshold"`
	RescueThreshold float64 `mapstructure:"rescue_threshold"`
	TopAlternates   int     `mapstructure:"top_alternates"`
}

// RulesConfig locates the optional rule-table override file
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/zakupnik/")

	// Environment variable settings: nested keys map to underscored
	// names, e.g. cache.redis_addr -> ZAKUPNIK_CACHE_REDIS_ADDR.
	v.SetEnvPrefix("ZAKUPNIK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Storage defaults
	v.SetDefault("catalog.path", "./data/catalog.db")
	v.SetDefault("cart.path", "./data/cart.db")
	v.SetDefault("cart.topup_fraction", 0.10)
	v.SetDefault("cart.max_topup_steps", 3)

	// Cache defaults. Redis keys default to empty so that env-only
	// overrides still reach Unmarshal.
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "15m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.burst", 30)

	// Matching defaults mirror the engine's built-in thresholds
	v.SetDefault("matching.strict_threshold", 70)
	v.SetDefault("matching.brand_threshold", 90)
	v.SetDefault("matching.rescue_threshold", 60)
	v.SetDefault("matching.top_alternates", 3)

	// Rules file is optional; empty means built-in tables only
	v.SetDefault("rules.path", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisAddr == "" {
		return fmt.Errorf("redis address is required when cache type is 'redis' (set ZAKUPNIK_CACHE_REDIS_ADDR)")
	}

	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog database path is required")
	}
	if config.Cart.Path == "" {
		return fmt.Errorf("cart database path is required")
	}

	if f := config.Cart.TopUpFraction; f <= 0 || f > 1 {
		return fmt.Errorf("cart top-up fraction must be in (0, 1], got: %v", f)
	}
	if config.Cart.MaxTopUpSteps < 1 {
		return fmt.Errorf("cart max top-up steps must be at least 1, got: %d", config.Cart.MaxTopUpSteps)
	}

	m := config.Matching
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"strict_threshold", m.StrictThreshold},
		{"brand_threshold", m.BrandThreshold},
		{"rescue_threshold", m.RescueThreshold},
	} {
		if th.value < 0 || th.value > 100 {
			return fmt.Errorf("matching %s must be within [0, 100], got: %v", th.name, th.value)
		}
	}
	if m.BrandThreshold < 70 || m.BrandThreshold > 95 {
		return fmt.Errorf("brand threshold must be within [70, 95], got: %v", m.BrandThreshold)
	}
	if m.RescueThreshold > m.StrictThreshold {
		return fmt.Errorf("rescue threshold %v must not exceed strict threshold %v", m.RescueThreshold, m.StrictThreshold)
	}

	if config.RateLimit.PerIP < 1 {
		return fmt.Errorf("per-IP rate limit must be at least 1, got: %d", config.RateLimit.PerIP)
	}

	if f := config.Log.Format; f != "json" && f != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", f)
	}

	return nil
}
