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

type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	DBDriver        string        `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN           string        `envconfig:"DB_DSN" default:"facturacion.db"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile         string        `envconfig:"LOG_FILE"`
	TimeAPIURL      string        `envconfig:"TIME_API_URL" default:"https://timeapi.io/api/Time/current/zone"`
	TimeZone        string        `envconfig:"TIME_ZONE" default:"America/Argentina/Buenos_Aires"`
	TimeAPITimeout  time.Duration `envconfig:"TIME_API_TIMEOUT" default:"3s"`
	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopic      string        `envconfig:"KAFKA_TOPIC" default:"sales.events"`
	BodyLimit       int           `envconfig:"BODY_LIMIT" default:"1048576"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file in the working directory, then the
// process environment. Variables already set win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER %q: want sqlite or postgres", c.DBDriver)
	}
	if c.BodyLimit <= 0 {
		return fmt.Errorf("BODY_LIMIT must be positive")
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	if c.TimeAPITimeout <= 0 {
		return fmt.Errorf("TIME_API_TIMEOUT must be positive")
	}
	return nil
}
