package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server" envPrefix:"SERVER_"`
	Telegram Telegram `yaml:"telegram" envPrefix:"TELEGRAM_"`
	Storage  Storage  `yaml:"storage" envPrefix:"STORAGE_"`
	Redis    Redis    `yaml:"redis" envPrefix:"REDIS_"`
	Postgres Postgres `yaml:"postgres" envPrefix:"POSTGRES_"`
	Bank     Bank     `yaml:"bank" envPrefix:"BANK_"`
	Hints    Hints    `yaml:"hints" envPrefix:"HINTS_"`
}

type Server struct {
	Port string `yaml:"port" env:"PORT"`
}

type Telegram struct {
	Token string `yaml:"token" env:"TOKEN"`
	Debug bool   `yaml:"debug" env:"DEBUG"`
	// Timeout is the long polling timeout in seconds.
	Timeout int `yaml:"timeout" env:"TIMEOUT"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Storage struct {
	Driver     string `yaml:"driver" env:"DRIVER"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	TTL      string `yaml:"ttl" env:"TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"URL"`
}

type Bank struct {
	// Path of a YAML bank; empty means the embedded sample bank.
	Path          string `yaml:"path" env:"PATH"`
	CacheTTL      string `yaml:"cache_ttl" env:"CACHE_TTL"`
	ImportOnStart bool   `yaml:"import_on_start" env:"IMPORT_ON_START"`
}

// Hints overrides the hint weighting. Unset fields keep the defaults; an explicit 0 is honoured.
type Hints struct {
	Ceiling *int `yaml:"ceiling" env:"CEILING"`
	Factor  *int `yaml:"factor" env:"FACTOR"`
}

// Load reads YAML config from path and applies QUIZ_* environment overrides on top.
// A missing file is not an error; the environment and defaults are used alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("decode %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "QUIZ_"}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "quiz.db"
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = 60
	}
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("storage driver %q needs postgres.url", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Redis.Addr != "" && c.Storage.Driver == DriverMemory {
		// Quest IDs of the memory driver restart with the process; sessions kept in redis would dangle.
		return fmt.Errorf("redis sessions need a durable storage driver, not %q", c.Storage.Driver)
	}
	if negative(c.Hints.Ceiling) || negative(c.Hints.Factor) {
		return fmt.Errorf("hint weights must not be negative")
	}
	return nil
}

func negative(v *int) bool {
	return v != nil && *v < 0
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
