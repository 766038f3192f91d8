package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Environment   string `env:"ENV" env-default:"development"`
	DBDSN         string `env:"DB_DSN"`
	StorageDriver string `env:"STORAGE_DRIVER" env-default:"postgres"`
	// MigrationsDir points goose at SQL files on disk; empty means the embedded set
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	HTTP     HTTP
	Venue    Venue
	Stripe   Stripe
	Kafka    Kafka
	Telegram Telegram
	Checkout Checkout
}

type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" env-default:":8080"`
	AdminToken      string        `env:"ADMIN_TOKEN"`
	AllowOrigins    []string      `env:"CORS_ALLOW_ORIGINS" env-separator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Venue struct {
	TimeZone string `env:"VENUE_TZ" env-default:"America/Los_Angeles"`
}

type Stripe struct {
	SecretKey  string        `env:"STRIPE_SECRET_KEY"`
	SuccessURL string        `env:"STRIPE_SUCCESS_URL"`
	CancelURL  string        `env:"STRIPE_CANCEL_URL"`
	Timeout    time.Duration `env:"STRIPE_TIMEOUT" env-default:"10s"`
}

type Kafka struct {
	Brokers []string      `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string        `env:"KAFKA_TOPIC" env-default:"coach-portal.purchases"`
	Timeout time.Duration `env:"KAFKA_TIMEOUT" env-default:"5s"`
}

type Telegram struct {
	Token       string `env:"TELEGRAM_TOKEN"`
	AdminChatID int64  `env:"TELEGRAM_ADMIN_CHAT_ID"`
}

type Checkout struct {
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" env-default:"5m"`
	// pending sessions younger than this are left to the success page
	SweepOlderThan time.Duration `env:"SWEEP_OLDER_THAN" env-default:"10m"`
	ExpireAfter    time.Duration `env:"CHECKOUT_EXPIRE_AFTER" env-default:"24h"`
}

func Load() (*Config, error) {
	// a missing .env file is fine
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver)
	}

	if _, err := time.LoadLocation(c.Venue.TimeZone); err != nil {
		return fmt.Errorf("VENUE_TZ: %w", err)
	}
	if c.Stripe.SecretKey != "" && (c.Stripe.SuccessURL == "" || c.Stripe.CancelURL == "") {
		return fmt.Errorf("STRIPE_SUCCESS_URL and STRIPE_CANCEL_URL are required with STRIPE_SECRET_KEY")
	}
	if c.Telegram.Token != "" && c.Telegram.AdminChatID == 0 {
		return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID is required with TELEGRAM_TOKEN")
	}
	return nil
}

// Location returns the venue time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Venue.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Help describes every environment variable, for --help output
func Help() string {
	text, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return text
}
