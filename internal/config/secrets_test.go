package config

import (
	"strings"
	"testing"
)

func TestParseCredentials(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Credentials
		wantErr bool
	}{
		{"plain", "MAINT-EXAMPLE:s3cret", Credentials{"MAINT-EXAMPLE", "s3cret"}, false},
		{"trailing newline", "MAINT-EXAMPLE:s3cret\n", Credentials{"MAINT-EXAMPLE", "s3cret"}, false},
		{"colons in apikey", "acct:key:with:colons", Credentials{"acct", "key:with:colons"}, false},
		{"no separator", "just-an-account", Credentials{}, true},
		{"empty account", ":key", Credentials{}, true},
		{"empty apikey", "acct:", Credentials{}, true},
		{"empty input", "", Credentials{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCredentials(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestLoadCredentials_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "dsbridge.secret", "MAINT-EXAMPLE:s3cret\n")
	cfg := &Config{CredentialsPath: path}

	creds, err := LoadCredentials(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Account != "MAINT-EXAMPLE" || creds.APIKey != "s3cret" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestLoadCredentials_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg := &Config{CredentialsPath: "/nonexistent/dsbridge.secret"}

	if _, err := LoadCredentials(cfg); err == nil {
		t.Fatal("expected error for missing credentials file")
	}
}

func TestLoadCredentials_MalformedFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "dsbridge.secret", "no separator here\n")
	cfg := &Config{CredentialsPath: path}

	_, err := LoadCredentials(cfg)
	if err == nil {
		t.Fatal("expected error for malformed credentials")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestLoadCredentials_EnvDirect(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCredentials, "env-account:env-key")
	cfg := &Config{CredentialsPath: "/nonexistent/dsbridge.secret"}

	creds, err := LoadCredentials(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Account != "env-account" || creds.APIKey != "env-key" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestLoadCredentials_EnvFileWinsOverDirect(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "secret", "file-account:file-key\n")
	t.Setenv(EnvCredentials, "env-account:env-key")
	t.Setenv(EnvCredentialsFile, path)
	cfg := &Config{CredentialsPath: "/nonexistent/dsbridge.secret"}

	creds, err := LoadCredentials(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Account != "file-account" {
		t.Errorf("file-based secret should win, got %+v", creds)
	}
}
