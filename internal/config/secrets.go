package config

import (
	"fmt"
	"os"
	"strings"
)

// Credentials authenticate one registry account.
type Credentials struct {
	Account string
	APIKey  string
}

// LoadCredentials resolves the account and API key before any network
// activity. Sources, highest precedence first: the DSBRIDGE_CREDENTIALS /
// DSBRIDGE_CREDENTIALS_FILE environment pair (Docker secrets pattern), then
// the credentials file from the configuration. Each carries one
// "account:apikey" line.
func LoadCredentials(cfg *Config) (Credentials, error) {
	if v := getEnvOrFile(EnvCredentials, EnvCredentialsFile); v != "" {
		return parseCredentials(v)
	}

	data, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials from %s: %w", cfg.CredentialsPath, err)
	}
	creds, err := parseCredentials(string(data))
	if err != nil {
		return Credentials{}, fmt.Errorf("credentials file %s: %w", cfg.CredentialsPath, err)
	}
	return creds, nil
}

// parseCredentials splits an "account:apikey" line. The apikey may itself
// contain colons; only the first one separates.
func parseCredentials(s string) (Credentials, error) {
	s = strings.TrimSpace(s)
	account, apikey, ok := strings.Cut(s, ":")
	if !ok || account == "" || apikey == "" {
		return Credentials{}, fmt.Errorf("malformed credentials: expected account:apikey")
	}
	return Credentials{Account: account, APIKey: apikey}, nil
}

// getEnvOrFile retrieves a value from either a direct environment variable
// or a file path specified by the file key (Docker secrets pattern).
//
// If both are set, the file takes precedence. This allows local development
// with direct values while production uses Docker secrets.
//
// The file contents are trimmed of leading/trailing whitespace.
func getEnvOrFile(directKey, fileKey string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
		// If file read fails, fall through to direct value
	}

	return os.Getenv(directKey)
}
