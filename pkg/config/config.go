package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/drone/envsubst"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/utils"
)

const (
	ENV_DB_DRIVER       = "WIDGY_DB_DRIVER"
	ENV_DB_DSN          = "WIDGY_DB_DSN"
	ENV_LOG_LEVEL       = "WIDGY_LOG_LEVEL"
	ENV_REVIEW_REQUIRED = "WIDGY_REVIEW_REQUIRED"
)

// DefaultFile is the name of the configuration file searched in
// the user config directory and the current working directory.
const DefaultFile = ".widgy.yaml"

type Config struct {
	Database Database `json:"database"`
	Logging  Logging  `json:"logging"`
	Review   Review   `json:"review"`
}

type Database struct {
	Driver      string `json:"driver,omitempty"`
	DSN         string `json:"dsn,omitempty"`
	BusyTimeout string `json:"busyTimeout,omitempty"`
}

type Logging struct {
	Level string `json:"level,omitempty"`
	// Realms configures log levels for dedicated realms, for example
	// widgy/store: debug.
	Realms map[string]string `json:"realms,omitempty"`
}

type Review struct {
	// Required is the default for the review flag of new trackers.
	Required bool `json:"required"`
}

func Default() *Config {
	return &Config{
		Database: Database{
			Driver: database.DRIVER_SQLITE,
			DSN:    "file:widgy.db",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Specification provides the database specification.
func (c *Config) Specification() (*database.Specification, error) {
	spec := &database.Specification{
		Driver: c.Database.Driver,
		DSN:    c.Database.DSN,
	}
	if c.Database.BusyTimeout != "" {
		d, err := time.ParseDuration(c.Database.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid busy timeout %q: %w", c.Database.BusyTimeout, err)
		}
		spec.BusyTimeout = d
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Parse parses a YAML configuration on top of the given one.
// Variables (${VAR}) are expanded with the given lookup function
// before parsing.
func Parse(cfg *Config, data []byte, lookup func(string) string) error {
	expanded, err := envsubst.Eval(string(data), lookup)
	if err != nil {
		return fmt.Errorf("variable expansion: %w", err)
	}
	return yaml.Unmarshal([]byte(expanded), cfg)
}

// ReadFile reads a configuration file on top of the given configuration.
func ReadFile(cfg *Config, fs vfs.FileSystem, path string, lookup func(string) string) error {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return err
	}
	if err := Parse(cfg, data, lookup); err != nil {
		return fmt.Errorf("config file %q: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides configuration values by environment variables.
func (c *Config) ApplyEnv(lookup func(string) string) error {
	if v := lookup(ENV_DB_DRIVER); v != "" {
		c.Database.Driver = v
	}
	if v := lookup(ENV_DB_DSN); v != "" {
		c.Database.DSN = v
	}
	if v := lookup(ENV_LOG_LEVEL); v != "" {
		c.Logging.Level = v
	}
	if v := lookup(ENV_REVIEW_REQUIRED); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", v, ENV_REVIEW_REQUIRED, err)
		}
		c.Review.Required = b
	}
	return nil
}

// Load provides the effective configuration. Without explicit path
// the default file is read from the user config directory and the
// current directory, if present. Environment overrides are applied last.
func Load(fs vfs.FileSystem, path string, lookup ...func(string) string) (*Config, error) {
	env := utils.OptionalDefaulted(os.Getenv, lookup...)
	cfg := Default()

	if path != "" {
		if err := ReadFile(cfg, fs, path, env); err != nil {
			return nil, err
		}
	} else {
		var candidates []string
		if dir, err := os.UserConfigDir(); err == nil {
			candidates = append(candidates, filepath.Join(dir, DefaultFile))
		}
		candidates = append(candidates, DefaultFile)
		for _, c := range candidates {
			err := ReadFile(cfg, fs, c, env)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}
	log.Debug("using {{driver}} database", "driver", cfg.Database.Driver)
	return cfg, nil
}
