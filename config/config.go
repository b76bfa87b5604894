package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConfigPathEnv names a YAML file to load when no --config flag is given
const ConfigPathEnv = "STOREAUDIT_CONFIG"

// Config is the main application configuration struct
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Redis     RedisConfig     `mapstructure:"redis"`
	History   HistoryConfig   `mapstructure:"history"`
	Sessions  SessionConfig   `mapstructure:"sessions"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
	// DevMode exposes popular URLs in the statistics endpoint.
	DevMode bool `mapstructure:"dev_mode"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// RedisConfig is optional; an empty address keeps history in memory
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type HistoryConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type SessionConfig struct {
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

type RateLimitConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst float64 `mapstructure:"burst"`
}

type StatsConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// legacyEnv maps config keys to additional environment variable names
var legacyEnv = map[string][]string{
	"server.port":     {"SERVER_PORT", "PORT"},
	"server.gin_mode": {"SERVER_GIN_MODE", "GIN_MODE"},
	"server.dev_mode": {"SERVER_DEV_MODE", "DEV_MODE"},
	"gemini.api_key":  {"GEMINI_API_KEY", "API_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8082")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.dev_mode", false)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.timeout", "120s")
	v.SetDefault("gemini.max_attempts", 1)
	v.SetDefault("gemini.retry_delay", "1s")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("history.ttl", "24h")
	v.SetDefault("history.max_size", 1000)

	v.SetDefault("sessions.idle_ttl", "30m")

	v.SetDefault("rate_limit.rate", 2)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("stats.data_dir", "data")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads defaults, an optional YAML file and environment overrides.
// An empty path falls back to STOREAUDIT_CONFIG; a missing file is an error
// only when a path was given explicitly.
func Load(path string) (*Config, error) {
	loadEnv()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, envs := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
				return nil, fmt.Errorf("error reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Gemini.MaxAttempts < 1 {
		return fmt.Errorf("gemini.max_attempts must be at least 1, got %d", c.Gemini.MaxAttempts)
	}
	if c.Gemini.Timeout <= 0 {
		return errors.New("gemini.timeout must be positive")
	}
	if c.RateLimit.Rate <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit needs rate > 0 and burst >= 1, got %v/%v", c.RateLimit.Rate, c.RateLimit.Burst)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// loadEnv reads .env.development first (for local development), then .env.
// Variables already set in the environment win.
func loadEnv() {
	for _, name := range []string{".env.development", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
			return
		}
	}
}
