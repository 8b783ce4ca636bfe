package codessa

import (
	"net/http"
	"net/url"
	"strings"
)

// Configuration is the connection state shared by all requests. It is owned
// exclusively by the Client and replaced as a whole on every refresh, so
// concurrent readers never observe a torn update. Each request snapshots the
// configuration when it begins; there is no point-in-time cutover guarantee
// at a refresh boundary.
type Configuration struct {
	// Endpoint is the backend base URL, without a trailing slash.
	Endpoint string
	// Credential is the bearer token. When empty, no Authorization header
	// is sent at all.
	Credential string
	// StreamingEnabled selects the streaming chat path when the caller
	// also supplies a chunk handler.
	StreamingEnabled bool
}

// applyAuth sets the Authorization header when a credential is configured.
func (cfg *Configuration) applyAuth(h http.Header) {
	if cfg.Credential != "" {
		h.Set("Authorization", "Bearer "+cfg.Credential)
	}
}

// SettingsProvider is the external settings capability the client re-reads
// its configuration from.
type SettingsProvider interface {
	Settings() (Configuration, error)
}

// StaticSettings is a SettingsProvider returning fixed values, for callers
// without a live settings source.
type StaticSettings Configuration

// Settings implements SettingsProvider.
func (s StaticSettings) Settings() (Configuration, error) {
	return Configuration(s), nil
}

// RefreshConfiguration re-reads the settings provider and atomically
// replaces the held configuration. Subsequent requests use the new values;
// a chat stream that is already open keeps the connection it dialed and is
// not aborted. The refresh never fails: a provider error or a malformed
// endpoint keeps the previous value.
func (c *Client) RefreshConfiguration() {
	prev := c.config.Load()

	next, err := c.provider.Settings()
	if err != nil {
		c.logger.Warn("settings read failed, keeping previous configuration", "error", err)
		return
	}

	next.Endpoint = strings.TrimSuffix(strings.TrimSpace(next.Endpoint), "/")
	if !validEndpoint(next.Endpoint) {
		if next.Endpoint != "" {
			c.logger.Warn("malformed endpoint, keeping previous", "endpoint", next.Endpoint)
		}
		next.Endpoint = prev.Endpoint
	}

	c.config.Store(&next)
}

func validEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
