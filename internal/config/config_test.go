package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvStreaming, "")
	os.Unsetenv(EnvEndpoint)
	os.Unsetenv(EnvAPIKey)
	os.Unsetenv(EnvStreaming)
}

func TestSettingsDefaults(t *testing.T) {
	clearEnv(t)

	p := &Provider{Path: filepath.Join(t.TempDir(), "missing.json")}
	cfg, err := p.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}

	if cfg.Endpoint != codessa.DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", cfg.Endpoint)
	}
	if cfg.Credential != "" {
		t.Errorf("expected empty credential, got %q", cfg.Credential)
	}
	if !cfg.StreamingEnabled {
		t.Error("expected streaming enabled by default")
	}
}

func TestSettingsFromFile(t *testing.T) {
	clearEnv(t)

	path := writeSettings(t, `{
		"endpoint": "https://codessa.example.com",
		"apiKey": "file-key",
		"streaming": false
	}`)

	p := &Provider{Path: path}
	cfg, err := p.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}

	if cfg.Endpoint != "https://codessa.example.com" {
		t.Errorf("unexpected endpoint: %s", cfg.Endpoint)
	}
	if cfg.Credential != "file-key" {
		t.Errorf("unexpected credential: %s", cfg.Credential)
	}
	if cfg.StreamingEnabled {
		t.Error("expected streaming disabled by the file")
	}
}

func TestSettingsMalformedFile(t *testing.T) {
	clearEnv(t)

	path := writeSettings(t, `{"endpoint": `)

	p := &Provider{Path: path}
	if _, err := p.Settings(); err == nil {
		t.Fatal("expected error for malformed settings file")
	}
}

func TestSettingsEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := writeSettings(t, `{"endpoint": "https://file.example", "apiKey": "file-key"}`)

	t.Setenv(EnvEndpoint, "https://env.example")
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvStreaming, "false")

	p := &Provider{Path: path}
	cfg, err := p.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}

	if cfg.Endpoint != "https://env.example" {
		t.Errorf("expected env endpoint to win, got %s", cfg.Endpoint)
	}
	if cfg.Credential != "env-key" {
		t.Errorf("expected env credential to win, got %s", cfg.Credential)
	}
	if cfg.StreamingEnabled {
		t.Error("expected CODESSA_STREAMING=false honored")
	}
}

func TestSettingsInvalidStreamingValueIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStreaming, "maybe")

	p := &Provider{Path: filepath.Join(t.TempDir(), "missing.json")}
	cfg, err := p.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if !cfg.StreamingEnabled {
		t.Error("expected invalid streaming value to leave the default")
	}
}

func TestSettingsOverridesWin(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvEndpoint, "https://env.example")

	off := false
	p := &Provider{
		Path: filepath.Join(t.TempDir(), "missing.json"),
		Overrides: Overrides{
			Endpoint:  "https://flag.example",
			APIKey:    "flag-key",
			Streaming: &off,
		},
	}

	cfg, err := p.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}

	if cfg.Endpoint != "https://flag.example" {
		t.Errorf("expected flag endpoint to win over env, got %s", cfg.Endpoint)
	}
	if cfg.Credential != "flag-key" {
		t.Errorf("expected flag credential, got %s", cfg.Credential)
	}
	if cfg.StreamingEnabled {
		t.Error("expected flag to disable streaming")
	}
}

func TestSettingsEnvFile(t *testing.T) {
	clearEnv(t)

	envPath := filepath.Join(t.TempDir(), "dev.env")
	if err := os.WriteFile(envPath, []byte(EnvAPIKey+"=dotenv-key\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// godotenv mutates the process environment; undo it.
	t.Cleanup(func() { os.Unsetenv(EnvAPIKey) })

	p := &Provider{
		Path:    filepath.Join(t.TempDir(), "missing.json"),
		EnvFile: envPath,
	}
	cfg, err := p.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if cfg.Credential != "dotenv-key" {
		t.Errorf("expected credential from env file, got %q", cfg.Credential)
	}
}
