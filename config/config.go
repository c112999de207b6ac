package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultAlphabet is the 62-symbol set used for generated short codes.
	DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	minCodeLength = 6
	maxCodeLength = 10
)

type Config struct {
	// Application
	App AppConfig `mapstructure:"app"`

	// Short-code generation and resolution caching
	ShortCode ShortCodeConfig `mapstructure:"short_code"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Rate limiting
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type AppConfig struct {
	// BaseURL is the public prefix short URLs are assembled from,
	// e.g. https://lnk.example.com.
	BaseURL string `mapstructure:"base_url"`
	Port    int    `mapstructure:"port"`
}

type ShortCodeConfig struct {
	// Alphabet is the symbol set for random generation. Defaults to the
	// 62 alphanumerics.
	Alphabet string `mapstructure:"alphabet"`
	// Length is the default generated code length, constrained to [6,10].
	Length int `mapstructure:"length"`
	// CacheTTLSeconds is how long a resolved mapping survives in Redis.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.port", 8080)
	v.SetDefault("short_code.alphabet", DefaultAlphabet)
	v.SetDefault("short_code.length", 7)
	v.SetDefault("short_code.cache_ttl_seconds", 3600)
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window_seconds", 60)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.ShortCode.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces the startup constraints on code generation settings. The
// configured length bounds collision probability, so a value outside [6,10]
// refuses to boot rather than run with a mis-sized code space.
func (c ShortCodeConfig) Validate() error {
	if c.Alphabet == "" {
		return fmt.Errorf("short_code.alphabet must not be empty")
	}
	seen := make(map[rune]bool, len(c.Alphabet))
	for _, r := range c.Alphabet {
		if seen[r] {
			return fmt.Errorf("short_code.alphabet contains duplicate symbol %q", r)
		}
		seen[r] = true
	}
	if c.Length < minCodeLength || c.Length > maxCodeLength {
		return fmt.Errorf("short_code.length must be between %d and %d, got %d",
			minCodeLength, maxCodeLength, c.Length)
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("short_code.cache_ttl_seconds must be positive, got %d", c.CacheTTLSeconds)
	}
	return nil
}

func bindEnvVars(v *viper.Viper) {
	// Application
	v.BindEnv("app.base_url", "BASE_URL")
	v.BindEnv("app.port", "PORT")

	// Short codes
	v.BindEnv("short_code.alphabet", "SHORT_CODE_ALPHABET")
	v.BindEnv("short_code.length", "SHORT_CODE_LENGTH")
	v.BindEnv("short_code.cache_ttl_seconds", "CACHE_TTL")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")

	// Rate limiting
	v.BindEnv("rate_limit.max_requests", "RATE_LIMIT_MAX_REQUESTS")
	v.BindEnv("rate_limit.window_seconds", "RATE_LIMIT_WINDOW_SECONDS")
}
