// Package config loads and saves zgate's portal settings from config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/zarlcorp/core/pkg/zfilesystem"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the config file inside the data directory.
const FileName = "config.yaml"

const (
	// DefaultEndpoint is the portal login handler on the campus network.
	DefaultEndpoint  = "http://172.16.68.6:8090/httpclient.html"
	DefaultTimeout   = 10 * time.Second
	DefaultKeepAlive = 2 * time.Minute
)

// Config holds portal connection settings.
type Config struct {
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
	KeepAlive time.Duration `yaml:"keep_alive"`
}

// fileConfig is the on-disk shape written by Save.
type fileConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Timeout   string `yaml:"timeout"`
	KeepAlive string `yaml:"keep_alive"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		Timeout:   DefaultTimeout,
		KeepAlive: DefaultKeepAlive,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("endpoint %q must be an http or https url", c.Endpoint)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.KeepAlive <= 0 {
		return fmt.Errorf("keep_alive must be positive, got %s", c.KeepAlive)
	}
	return nil
}

// Load reads config.yaml from fsys. A missing file yields the defaults with no
// error. Fields absent from the file keep their default values. A malformed
// or invalid file returns the defaults together with the error so callers can
// warn and carry on.
func Load(fsys zfilesystem.ReadWriteFileFS) (Config, error) {
	cfg := Default()

	data, err := fsys.ReadFile(FileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config: read: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("load config: parse: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Save validates cfg and writes it to fsys.
func Save(fsys zfilesystem.ReadWriteFileFS, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	// durations are written in their string form, e.g. "2m0s"
	data, err := yaml.Marshal(fileConfig{
		Endpoint:  cfg.Endpoint,
		Timeout:   cfg.Timeout.String(),
		KeepAlive: cfg.KeepAlive.String(),
	})
	if err != nil {
		return fmt.Errorf("save config: marshal: %w", err)
	}

	if err := fsys.WriteFile(FileName, data, 0o600); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}

	return nil
}
