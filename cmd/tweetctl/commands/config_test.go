package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/app"
)

func noEnv() []string { return nil }

func TestLoadConfigFromEnv(t *testing.T) {
	environ := func() []string {
		return []string{
			"TWEETCTL_AUTH__CLIENT_ID=env-client",
			"TWEETCTL_AUTH__STORAGE=memory",
			"TWEETCTL_LOG_FORMAT=json",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Auth.ClientID != "env-client" {
		t.Errorf("ClientID = %q, want %q", cfg.Auth.ClientID, "env-client")
	}
	if cfg.Auth.Storage != app.CredentialStorageTypeMemory {
		t.Errorf("Storage = %q, want memory", cfg.Auth.Storage)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	// Defaults still fill what the environment leaves unset.
	if cfg.Auth.RedirectURI != app.DefaultConfigRedirectURI {
		t.Errorf("RedirectURI = %q, want default", cfg.Auth.RedirectURI)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
log_format = "json"

[auth]
client_id = "file-client"
storage = "memory"
`
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("writing config file failed: %v", err)
	}

	cfg, err := loadConfig(path, nil, noEnv)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Auth.ClientID != "file-client" {
		t.Errorf("ClientID = %q, want %q", cfg.Auth.ClientID, "file-client")
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[auth]
client_id = "file-client"
storage = "memory"
`
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("writing config file failed: %v", err)
	}

	environ := func() []string {
		return []string{"TWEETCTL_AUTH__CLIENT_ID=env-client"}
	}

	cfg, err := loadConfig(path, nil, environ)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Auth.ClientID != "env-client" {
		t.Errorf("ClientID = %q, environment should win over the file", cfg.Auth.ClientID)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	// Missing client_id fails validation.
	if _, err := loadConfig("", nil, noEnv); err == nil {
		t.Error("expected validation error for empty config")
	}

	// Unreadable config file fails loading.
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), nil, noEnv); err == nil {
		t.Error("expected error for missing config file")
	}
}
