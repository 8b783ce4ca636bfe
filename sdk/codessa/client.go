// Package codessa provides a Go client for the Codessa AI Workbench backend.
//
// The client holds a connection configuration (endpoint, credential,
// streaming flag) that is replaced wholesale on every refresh, and exposes
// four request kinds: synchronous chat, streaming chat, policy checks and
// playbook-step execution.
//
// Example usage:
//
//	client := codessa.NewClient(codessa.StaticSettings{
//	    Endpoint: "http://localhost:8787",
//	})
//
//	resp, err := client.SendChatMessage(ctx, &codessa.ChatRequest{
//	    Message: "Hello!",
//	}, func(chunk string) {
//	    fmt.Print(chunk)
//	}, nil)
package codessa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/sjson"
)

// DefaultEndpoint is used when the settings provider supplies no endpoint.
const DefaultEndpoint = "http://localhost:8787"

// Client is the SDK client for the Codessa AI Workbench backend.
type Client struct {
	httpClient *http.Client
	provider   SettingsProvider
	config     atomic.Pointer[Configuration]
	logger     *Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout. The streaming chat connection
// is exempt; it stays open until the terminal envelope arrives.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		if client.httpClient == nil {
			client.httpClient = &http.Client{}
		}
		client.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request timing and envelope
// parse warnings.
func WithLogger(l *Logger) ClientOption {
	return func(client *Client) {
		if l != nil {
			client.logger = l
		}
	}
}

// NewClient creates a new SDK client. The provider is the external settings
// capability the configuration is (re-)read from; the initial read happens
// here, falling back to defaults when the provider errors.
func NewClient(provider SettingsProvider, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		provider: provider,
		logger:   NewLoggerFromEnv(),
	}
	c.config.Store(&Configuration{
		Endpoint:         DefaultEndpoint,
		StreamingEnabled: true,
	})

	for _, opt := range opts {
		opt(c)
	}

	c.RefreshConfiguration()
	return c
}

// Configuration returns a copy of the currently held configuration.
func (c *Client) Configuration() Configuration {
	return *c.config.Load()
}

// String creates a string pointer (helper for optional fields).
func String(s string) *string {
	return &s
}

// Int creates an int pointer (helper for optional fields).
func Int(i int) *int {
	return &i
}

// Bool creates a bool pointer (helper for optional fields).
func Bool(b bool) *bool {
	return &b
}

// SendChatMessage sends a chat message and resolves with the complete
// response. It dispatches to streaming mode when streaming is enabled in the
// configuration and a chunk handler is supplied; otherwise it performs a
// single synchronous exchange against POST /chat.
func (c *Client) SendChatMessage(ctx context.Context, req *ChatRequest, onChunk ChunkHandler, onAction ActionHandler) (*ChatResponse, error) {
	cfg := c.config.Load()
	if cfg.StreamingEnabled && onChunk != nil {
		return c.sendStreaming(ctx, cfg, req, onChunk, onAction)
	}
	return c.sendSync(ctx, cfg, req)
}

// sendSync performs the non-streaming chat exchange. The stream flag is
// forced to false in the serialized body regardless of what the request
// carries.
func (c *Client) sendSync(ctx context.Context, cfg *Configuration, req *ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, wrapTransport("send chat message", fmt.Errorf("marshal request body: %w", err))
	}
	body, err = sjson.SetBytes(body, "stream", false)
	if err != nil {
		return nil, wrapTransport("send chat message", fmt.Errorf("set stream flag: %w", err))
	}

	var result ChatResponse
	if err := c.doRequest(ctx, cfg, http.MethodPost, "/chat", body, &result); err != nil {
		return nil, wrapTransport("send chat message", err)
	}
	return &result, nil
}

// CheckPolicies submits file content for policy evaluation. An empty
// violations list is a valid, non-error result meaning "no violations".
func (c *Client) CheckPolicies(ctx context.Context, req *PolicyCheckRequest) ([]PolicyViolation, error) {
	var result policyCheckResponse
	if err := c.doJSON(ctx, http.MethodPost, "/policy/check", req, &result); err != nil {
		return nil, wrapTransport("check policies", err)
	}
	if result.Violations == nil {
		result.Violations = []PolicyViolation{}
	}
	return result.Violations, nil
}

// ExecutePlaybookStep sends a step to the backend and returns the backend's
// mutated copy with status and output populated.
func (c *Client) ExecutePlaybookStep(ctx context.Context, step *PlaybookStep) (*PlaybookStep, error) {
	var result PlaybookStep
	if err := c.doJSON(ctx, http.MethodPost, "/playbook/execute", step, &result); err != nil {
		return nil, wrapTransport("execute playbook step", err)
	}
	return &result, nil
}

// doJSON marshals body and performs the request against the configuration
// held at call time.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}
	return c.doRequest(ctx, c.config.Load(), method, path, raw, result)
}

// doRequest performs an HTTP request against the given configuration
// snapshot and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, cfg *Configuration, method, path string, rawBody []byte, result any) error {
	var bodyReader io.Reader
	if rawBody != nil {
		bodyReader = bytes.NewReader(rawBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.Endpoint+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if rawBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	cfg.applyAuth(req.Header)

	rl := c.logger.StartRequest(method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		rl.Error(err)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		statusErr := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(bodyBytes))}
		rl.Error(statusErr)
		return statusErr
	}
	rl.Success(resp.StatusCode)

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
