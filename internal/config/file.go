package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with YAML-friendly types. Empty fields leave
// the defaults untouched.
type fileConfig struct {
	Endpoint        string             `yaml:"endpoint,omitempty"`
	Timeout         string             `yaml:"timeout,omitempty"` // Go duration format, e.g. "30s"
	CredentialsFile string             `yaml:"credentials_file,omitempty"`
	Logging         *fileLoggingConfig `yaml:"logging,omitempty"`
}

// fileLoggingConfig holds logging settings.
type fileLoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text, json
}

// applyFile overlays the YAML config file at path onto cfg. When the path
// was not named explicitly, a missing file is silently skipped.
func applyFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.Endpoint != "" {
		cfg.Endpoint = fc.Endpoint
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("config file %s: parsing timeout: %w", path, err)
		}
		cfg.Timeout = d
	}
	if fc.CredentialsFile != "" {
		cfg.CredentialsPath = fc.CredentialsFile
	}
	if fc.Logging != nil {
		if fc.Logging.Level != "" {
			cfg.LogLevel = fc.Logging.Level
		}
		if fc.Logging.Format != "" {
			cfg.LogFormat = fc.Logging.Format
		}
	}

	return nil
}
