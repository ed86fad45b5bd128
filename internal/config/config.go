// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Store    string `env:"STORE" envDefault:"postgres"`

	DB         DB     `envPrefix:"DB_"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/agencei.db"`

	RedisURL     string `env:"REDIS_URL"`
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"agencei.events"`

	Scheduling Scheduling
}

// devDBPassword is the DB_PASSWORD default, accepted outside production only.
const devDBPassword = "postgres"

// DB holds PostgreSQL connection settings.
type DB struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME" envDefault:"agencei"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN builds a libpq-compatible connection string.
func (c DB) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Scheduling holds the booking and check-in policy knobs.
type Scheduling struct {
	MaxEventDuration    time.Duration `env:"MAX_EVENT_DURATION" envDefault:"12h"`
	CheckInWindowBefore time.Duration `env:"CHECKIN_WINDOW_BEFORE" envDefault:"30m"`
	CheckInWindowAfter  time.Duration `env:"CHECKIN_WINDOW_AFTER" envDefault:"30m"`
	TokenPrefix         string        `env:"TOKEN_PREFIX" envDefault:"AGENCEI"`
	CheckInRateLimit    int           `env:"CHECKIN_RATE_LIMIT" envDefault:"10"`
	CheckInRateWindow   time.Duration `env:"CHECKIN_RATE_WINDOW" envDefault:"1m"`
}

// Load reads a .env file if present and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.Env == "production" && c.Store == StoreMemory {
		return errors.New("STORE=memory is not allowed in production")
	}
	if c.Env == "production" && c.Store == StorePostgres && (c.DB.Password == "" || c.DB.Password == devDBPassword) {
		return errors.New("DB_PASSWORD must be set in production")
	}
	s := c.Scheduling
	if s.MaxEventDuration <= 0 {
		return errors.New("MAX_EVENT_DURATION must be positive")
	}
	if s.CheckInWindowBefore < 0 || s.CheckInWindowAfter < 0 {
		return errors.New("check-in window must not be negative")
	}
	if s.TokenPrefix == "" {
		return errors.New("TOKEN_PREFIX is required")
	}
	return nil
}
