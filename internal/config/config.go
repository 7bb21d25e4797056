package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Queue      QueueConfig
	Settlement SettlementConfig
	Payroll    PayrollConfig
}

type AppConfig struct {
	Port            int           `envconfig:"APP_PORT" default:"8080"`
	Env             string        `envconfig:"APP_ENV" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	// ClockRateLimit caps clock-in/clock-out requests per client IP per minute.
	ClockRateLimit  int           `envconfig:"CLOCK_RATE_LIMIT" default:"30"`
}

type DatabaseConfig struct {
	// Driver selects the repository implementation: memory or postgres.
	Driver   string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"payroll"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
}

type RedisConfig struct {
	// Addr enables the distributed lock and the task queue when set.
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL  time.Duration `envconfig:"REDIS_LOCK_TTL" default:"10s"`
	LockWait time.Duration `envconfig:"REDIS_LOCK_WAIT" default:"5s"`
}

type QueueConfig struct {
	// Enabled routes settlement events through asynq instead of settling in process.
	Enabled     bool `envconfig:"QUEUE_ENABLED" default:"false"`
	Concurrency int  `envconfig:"QUEUE_CONCURRENCY" default:"10"`
	MaxRetry    int  `envconfig:"QUEUE_MAX_RETRY" default:"10"`
}

type SettlementConfig struct {
	ReplayInterval      time.Duration `envconfig:"SETTLEMENT_REPLAY_INTERVAL" default:"1m"`
	ReplayMinAge        time.Duration `envconfig:"SETTLEMENT_REPLAY_MIN_AGE" default:"30s"`
	ReplayBatchSize     int           `envconfig:"SETTLEMENT_REPLAY_BATCH" default:"200"`
	// ActionRequiredAfter is how long an approved request may stay unsettled before it is surfaced.
	ActionRequiredAfter time.Duration `envconfig:"SETTLEMENT_ACTION_REQUIRED_AFTER" default:"48h"`
	MarkAbsentInterval  time.Duration `envconfig:"MARK_ABSENT_INTERVAL" default:"1h"`
	SettingsRefresh     time.Duration `envconfig:"SETTINGS_REFRESH_INTERVAL" default:"5m"`
}

type PayrollConfig struct {
	DraftConcurrency int `envconfig:"PAYROLL_DRAFT_CONCURRENCY" default:"8"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	for _, section := range []interface{}{&cfg.App, &cfg.Database, &cfg.Redis, &cfg.Queue, &cfg.Settlement, &cfg.Payroll} {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageMemory, StoragePostgres)
	}
	if c.Queue.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when QUEUE_ENABLED is set")
	}
	if c.Queue.Enabled && c.Database.Driver == StorageMemory {
		return fmt.Errorf("QUEUE_ENABLED requires the postgres storage driver")
	}
	if c.App.Port <= 0 {
		return fmt.Errorf("APP_PORT must be positive")
	}
	if c.Settlement.ReplayInterval <= 0 || c.Settlement.MarkAbsentInterval <= 0 || c.Settlement.SettingsRefresh <= 0 {
		return fmt.Errorf("job intervals must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) IsProduction() bool {
	return c.App.IsProduction()
}

func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}
