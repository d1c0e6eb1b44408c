// Package config centralises configuration parsing for the activities API.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures runtime configuration values for the activities API.
type Config struct {
	HTTPAddress        string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	ReadTimeout        time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout       time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout        time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	StaticDir          string        `env:"STATIC_DIR" envDefault:"static"`
	CORSAllowedOrigin  string        `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:5173"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	EnforceCapacity    bool          `env:"ENFORCE_CAPACITY" envDefault:"false"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envSeparator:","`
	EventsTopic        string        `env:"EVENTS_TOPIC" envDefault:"activity.participants"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"25"`
	OutboxCapacity     int           `env:"OUTBOX_CAPACITY" envDefault:"1000"`
}

// Load reads the optional dotenv files (".env" when none are given) and then the
// process environment into Config. Variables already set in the environment win.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.KafkaBrokers = trimAll(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return errors.New("HTTP_ADDRESS is required")
	}
	if c.OutboxPollInterval <= 0 {
		return errors.New("OUTBOX_POLL_INTERVAL must be > 0")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be > 0")
	}
	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.EventsTopic) == "" {
		return errors.New("EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// EventsEnabled reports whether participation events go to Kafka.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
