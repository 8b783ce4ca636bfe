// Package config resolves EchoPilot settings from the user settings
// file, the environment, and command line overrides, in that order of
// increasing precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// Environment variables recognized by the provider. Each one, when
// set, overrides the corresponding settings file field.
const (
	EnvEndpoint  = "CODESSA_ENDPOINT"
	EnvAPIKey    = "CODESSA_API_KEY"
	EnvStreaming = "CODESSA_STREAMING"
)

// DefaultPath returns the per-user settings file location. The file is
// optional; a missing file means defaults.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "echopilot", "settings.json")
}

// fileSettings mirrors the JSON shape of the settings file. Streaming
// is a pointer so absence is distinguishable from false.
type fileSettings struct {
	Endpoint string `json:"endpoint"`
	// TODO: move the credential into the OS keyring; a plain apiKey
	// field in the settings file is a stopgap.
	APIKey    string `json:"apiKey"`
	Streaming *bool  `json:"streaming"`
}

// Overrides carries command line values that win over the file and the
// environment. Zero values mean "not set".
type Overrides struct {
	Endpoint  string
	APIKey    string
	Streaming *bool
}

// Provider reads settings on demand. It implements
// codessa.SettingsProvider, so a client refresh re-reads everything.
type Provider struct {
	// Path is the settings file to read. Empty means DefaultPath().
	Path string
	// EnvFile is an optional dotenv file loaded before the
	// environment is consulted. Variables already set in the
	// environment win over the file.
	EnvFile string

	Overrides Overrides

	logger *codessa.Logger
}

// NewProvider returns a provider reading the default settings file.
func NewProvider() *Provider {
	return &Provider{logger: codessa.NewLoggerFromEnv()}
}

// Settings resolves the current configuration. A missing settings file
// is not an error; a malformed one is, so the caller keeps whatever
// configuration it already had.
func (p *Provider) Settings() (codessa.Configuration, error) {
	cfg := codessa.Configuration{
		Endpoint:         codessa.DefaultEndpoint,
		StreamingEnabled: true,
	}

	path := p.Path
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fine, defaults apply
		case err != nil:
			return cfg, fmt.Errorf("read settings file: %w", err)
		default:
			var fs fileSettings
			if err := json.Unmarshal(data, &fs); err != nil {
				return cfg, fmt.Errorf("parse settings file %s: %w", path, err)
			}
			if fs.Endpoint != "" {
				cfg.Endpoint = fs.Endpoint
			}
			if fs.APIKey != "" {
				cfg.Credential = fs.APIKey
			}
			if fs.Streaming != nil {
				cfg.StreamingEnabled = *fs.Streaming
			}
		}
	}

	if p.EnvFile != "" {
		if err := godotenv.Load(p.EnvFile); err != nil {
			p.logger.Warn("failed to load env file", "path", p.EnvFile, "error", err)
		}
	}

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Credential = v
	}
	if v := os.Getenv(EnvStreaming); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StreamingEnabled = b
		} else {
			p.logger.Warn("ignoring invalid value", "var", EnvStreaming, "value", v)
		}
	}

	if p.Overrides.Endpoint != "" {
		cfg.Endpoint = p.Overrides.Endpoint
	}
	if p.Overrides.APIKey != "" {
		cfg.Credential = p.Overrides.APIKey
	}
	if p.Overrides.Streaming != nil {
		cfg.StreamingEnabled = *p.Overrides.Streaming
	}

	return cfg, nil
}
