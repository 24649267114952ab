package config

import (
	"os"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultConfigFile = "/config/shelfmark.yaml"

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Hostname                  string        `koanf:"-"`
	OverridesFilePath         string        `koanf:"overrides_file_path"`
	ProviderBaseURL           string        `koanf:"provider_base_url"`
	ProviderTimeout           time.Duration `koanf:"provider_timeout"`
	ReconcileWorkers          int           `koanf:"reconcile_workers"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	SweepIntervalMinutes      int           `koanf:"sweep_interval_minutes"`
	WorkerProcesses           int           `koanf:"worker_processes"`
}

// New loads the config in three layers: built-in defaults, then the YAML
// config file (CONFIG_FILE, defaulting to /config/shelfmark.yaml), then
// environment variables. Later layers win.
func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := defaultConfig()
	cfg.Hostname = hostname

	k := koanf.New(".")

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	if err := k.Load(env.Provider("", ".", toSnakeCase), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.DatabaseFilePath == "" {
		return nil, errors.New("missing required config: DATABASE_FILE_PATH (database_file_path)")
	}

	return cfg, nil
}

// NewForTest returns a config backed by an in-memory database, suitable for
// package tests that don't want to touch the environment.
func NewForTest() *Config {
	cfg := defaultConfig()
	cfg.DatabaseFilePath = ":memory:"
	cfg.Hostname = "test"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		ProviderBaseURL:           "https://openlibrary.org",
		ProviderTimeout:           10 * time.Second,
		ReconcileWorkers:          4,
		ServerHost:                "0.0.0.0",
		ServerPort:                3690,
		SweepIntervalMinutes:      60,
		WorkerProcesses:           2,
	}
}

// toSnakeCase maps env var names onto config file keys, e.g.
// DATABASE_FILE_PATH -> database_file_path.
func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
