// Package config handles loading and validation of dsbridge configuration:
// registry endpoint, credentials, and logging settings.
package config

import (
	"fmt"
	"os"
	"time"
)

// Defaults applied before the config file and environment are consulted.
const (
	// DefaultEndpoint is the registry API base URL.
	DefaultEndpoint = "https://registry-api.apnic.net/v1"

	// DefaultCredentialsPath is where the account:apikey secret lives when
	// not configured otherwise. Relative to the working directory the
	// signer invokes us from.
	DefaultCredentialsPath = "dsbridge.secret"

	// DefaultConfigPath is consulted when no config file is named
	// explicitly. A missing file there is not an error.
	DefaultConfigPath = "/etc/dsbridge/config.yaml"

	// DefaultTimeout bounds each registry HTTP round-trip.
	DefaultTimeout = 30 * time.Second
)

// Environment variable names. Values here override the config file.
const (
	EnvConfig          = "DSBRIDGE_CONFIG"
	EnvEndpoint        = "DSBRIDGE_ENDPOINT"
	EnvTimeout         = "DSBRIDGE_TIMEOUT"
	EnvCredentials     = "DSBRIDGE_CREDENTIALS"
	EnvCredentialsFile = "DSBRIDGE_CREDENTIALS_FILE"
	EnvLogLevel        = "DSBRIDGE_LOG_LEVEL"
	EnvLogFormat       = "DSBRIDGE_LOG_FORMAT"
)

// Config is the resolved runtime configuration for one invocation.
type Config struct {
	// Endpoint is the registry API base URL, without the account segment.
	Endpoint string

	// Timeout is the HTTP client timeout for registry calls.
	Timeout time.Duration

	// CredentialsPath is the file holding "account:apikey".
	CredentialsPath string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is "text" or "json".
	LogFormat string
}

// Load resolves the configuration. Precedence, lowest to highest: built-in
// defaults, the YAML config file, environment variables. path names the
// config file explicitly; when empty, DSBRIDGE_CONFIG and then the default
// location are tried, and absence is fine.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Endpoint:        DefaultEndpoint,
		Timeout:         DefaultTimeout,
		CredentialsPath: DefaultCredentialsPath,
		LogLevel:        "info",
		LogFormat:       "text",
	}

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigPath
	}

	if err := applyFile(cfg, path, explicit); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	return nil
}

// Validate checks the resolved configuration before any network activity.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("configuration error: endpoint: required but not set")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("configuration error: timeout: must be positive, got %s", c.Timeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("configuration error: log level %q: must be debug, info, warn, or error", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("configuration error: log format %q: must be text or json", c.LogFormat)
	}
	return nil
}
