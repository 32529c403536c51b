package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = ".gts-validator.yaml"
	// DotEnvFile supplies environment defaults from the working directory.
	DotEnvFile = ".env"
)

// Environment variables read by the loader.
const (
	EnvVendor  = "GTS_VALIDATOR_VENDOR"
	EnvStrict  = "GTS_VALIDATOR_STRICT"
	EnvExclude = "GTS_VALIDATOR_EXCLUDE"
	EnvWorkers = "GTS_VALIDATOR_WORKERS"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger    *slog.Logger
	dir       string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader rooted at the current working directory.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return &Loader{logger: logger, dir: dir, lookupEnv: os.LookupEnv}
}

// Load loads configuration with layered precedence:
// 1. Defaults
// 2. Project config (explicit path, or .gts-validator.yaml in the working
// directory or its parents)
// 3. Environment variables, then the .env file for variables the process
// environment leaves unset
//
// Command-line flags are applied by the caller.
func (l *Loader) Load(explicit string) (*Config, error) {
	config := DefaultConfig()

	path := explicit
	if path == "" {
		path = l.findProjectConfig()
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded project config", slog.String("path", path))
		config.Merge(fileConfig)
	} else {
		l.logger.Debug("no project config found")
	}

	if err := l.applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// findProjectConfig searches for the project config in the loader's
// directory and its parents.
func (l *Loader) findProjectConfig() string {
	dir := l.dir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// env returns a lookup over the process environment falling back to .env.
func (l *Loader) env() func(string) (string, bool) {
	dotenv, err := godotenv.Read(filepath.Join(l.dir, DotEnvFile))
	switch {
	case err == nil:
		l.logger.Debug("loaded .env", slog.Int("variables", len(dotenv)))
	case errors.Is(err, os.ErrNotExist):
	default:
		l.logger.Warn("failed to read .env", slog.String("error", err.Error()))
	}

	return func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func (l *Loader) applyEnv(c *Config) error {
	lookup := l.env()

	if v, ok := lookup(EnvVendor); ok && v != "" {
		c.Vendor = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvStrict); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, EnvStrict, v)
		}
		c.Strict = b
	}
	if v, ok := lookup(EnvExclude); ok && v != "" {
		c.Exclude = splitList(v)
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, EnvWorkers, v)
		}
		c.Workers = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
