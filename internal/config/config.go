// Package config handles loading and parsing application configuration.
// It supports two sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// A .env file in the working directory, when present, is loaded into the
// environment first, so every env:"..." key below can live there too.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Backend kinds.
const (
	BackendRemote = "remote"
	BackendSQLite = "sqlite"
)

// Route styles understood by the remote backend.
const (
	RoutesREST   = "rest"
	RoutesLegacy = "legacy"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// StoragePath is the SQLite file used by the sqlite backend.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH"`

	HTTPServer `yaml:"http_server"`
	Backend    `yaml:"backend"`
}

// HTTPServer holds settings of the local API server.
type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
}

// Backend selects where student records live.
type Backend struct {
	// Kind is "remote" (the external HTTP service) or "sqlite".
	Kind string `yaml:"kind" env:"BACKEND_KIND" env-default:"remote"`

	// BaseURL of the external service, e.g. "http://127.0.0.1:8080".
	BaseURL string `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"http://127.0.0.1:8080"`

	// Routes is "rest" (/students) or "legacy" (/get_students, /add_student, ...).
	Routes string `yaml:"routes" env:"BACKEND_ROUTES" env-default:"rest"`
}

// Validate checks the combinations cleanenv cannot express with tags.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendRemote:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base_url is required for the %s backend", BackendRemote)
		}
		if c.Backend.Routes != RoutesREST && c.Backend.Routes != RoutesLegacy {
			return fmt.Errorf("backend.routes must be %q or %q, got %q", RoutesREST, RoutesLegacy, c.Backend.Routes)
		}
	case BackendSQLite:
		if c.StoragePath == "" {
			return fmt.Errorf("storage_path is required for the %s backend", BackendSQLite)
		}
	default:
		return fmt.Errorf("backend.kind must be %q or %q, got %q", BackendRemote, BackendSQLite, c.Backend.Kind)
	}
	return nil
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad resolves the config path, reads, validates, and returns the
// application config. It exits the process on any failure.
func MustLoad() *Config {
	_ = godotenv.Load() // .env is optional

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
