/*
Package config loads server settings from a YAML file with environment
overrides.

PRECEDENCE:
  env var > yaml file > env-default tag

  Every field can be overridden by the env var named in its tag, so a
  container can run with the shipped local.yaml plus a few variables.

SEE ALSO:
  - config/local.yaml: Defaults for local development
  - cmd/server/main.go: Consumer
*/
package config

import (
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string `yaml:"env" env:"APP_ENV" env-default:"local"`
	DatabasePath  string `yaml:"database_path" env:"DATABASE_PATH" env-default:"recurring.db"`
	DirectoryPath string `yaml:"directory_path" env:"DIRECTORY_PATH" env-default:"directory.db"`

	HTTPServer `yaml:"http_server"`
	CORS       `yaml:"cors"`
	Report     `yaml:"report"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
}

type Report struct {
	// Days before asOf scanned for overdue occurrences.
	OverdueHorizonDays int           `yaml:"overdue_horizon_days" env:"REPORT_OVERDUE_HORIZON_DAYS" env-default:"30"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env:"REPORT_REQUEST_TIMEOUT" env-default:"10s"`
	// IANA zone in which timestamps become calendar days. "Local" is the
	// host's zone.
	Timezone string `yaml:"timezone" env:"REPORT_TIMEZONE" env-default:"UTC"`
}

// Location resolves Timezone.
func (r Report) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("report timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// Load reads path (if it exists) and applies env overrides.
// An empty path reads the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if _, err := cfg.Report.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that exits the process on failure.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}
