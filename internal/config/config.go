package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Schedule feed API
	FeedAPIKey  string        `envconfig:"FEED_API_KEY" required:"true"`
	FeedBaseURL string        `envconfig:"FEED_BASE_URL" default:"https://api.sportsdata.io/v3/nba"`
	FeedTimeout time.Duration `envconfig:"FEED_TIMEOUT" default:"30s"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"nbasched"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"nbasched_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Sync
	Season             int           `envconfig:"SEASON" default:"2026"`
	InitialLoadEnabled bool          `envconfig:"INITIAL_LOAD_ENABLED" default:"true"`
	EnableScheduler    bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	ReconcileInterval  time.Duration `envconfig:"RECONCILE_INTERVAL" default:"15m"`
	NightlyCron        string        `envconfig:"NIGHTLY_CRON" default:"0 3 * * *"`

	// Caching TTL for the fetched schedule payload
	CacheTTLSchedule time.Duration `envconfig:"CACHE_TTL_SCHEDULE" default:"5m"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables.
// It first attempts to load from a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.FeedAPIKey == "" {
		return fmt.Errorf("FEED_API_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.ReconcileInterval < time.Minute {
		return fmt.Errorf("RECONCILE_INTERVAL must be at least one minute")
	}

	return nil
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error.
// Use this in main() where we want to fail fast.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
