package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/dailyfocus/focus/internal/reminder"
	"github.com/dailyfocus/focus/internal/storage"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DBPath       string `env:"DB_PATH" envDefault:"data/focus.db"`
	RedisURL     string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix  string `env:"REDIS_PREFIX" envDefault:"focus:"`
	DataDir      string `env:"DATA_DIR" envDefault:"data/kv"`

	// ContentDir holds story YAML files. Empty serves the bundled stories.
	ContentDir string `env:"CONTENT_DIR"`

	// AMQPURL enables publishing session results when set.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"focus.events"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	ReminderHour       int `env:"REMINDER_HOUR" envDefault:"20"`
	ReminderMinute     int `env:"REMINDER_MINUTE" envDefault:"0"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.RateLimitPerMinute < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", cfg.RateLimitPerMinute)
	}
	return &cfg, nil
}

func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Backend:     c.StoreBackend,
		DBPath:      c.DBPath,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
		DataDir:     c.DataDir,
	}
}

// ReminderDefaults are the settings used until the reader stores their own.
func (c *Config) ReminderDefaults() reminder.Settings {
	return reminder.Settings{
		Enabled: true,
		Hour:    reminder.WrapHour(c.ReminderHour),
		Minute:  reminder.WrapMinute(c.ReminderMinute),
	}
}
