package codessa

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Envelope is one discrete JSON message pushed over the chat stream,
// tagged with a type discriminator.
type Envelope struct {
	Type    string  `json:"type"`
	Content string  `json:"content,omitempty"`
	Action  *Action `json:"action,omitempty"`
}

// Envelope type discriminators.
const (
	EnvelopeContent = "content"
	EnvelopeAction  = "action"
	EnvelopeDone    = "done"
)

// ChunkHandler receives each content chunk in arrival order.
type ChunkHandler func(chunk string)

// ActionHandler receives each action in arrival order. The stream does not
// advance past an action envelope until the handler returns, so a handler
// may perform edits the next step depends on. A non-nil error aborts the
// stream.
type ActionHandler func(action Action) error

// StreamChat opens the chat stream and initiates it with req. It returns a
// lazy, single-consumer sequence of envelopes: the envelope channel is
// unbuffered, so the reader cannot run ahead of the consumer. The error
// channel reports at most one transport failure; both channels are closed
// when the stream ends. Cancel the context to abandon the stream and
// release the connection.
func (c *Client) StreamChat(ctx context.Context, req *ChatRequest) (<-chan Envelope, <-chan error, error) {
	return c.openStream(ctx, c.config.Load(), req)
}

// openStream dials the push connection, then independently issues the
// one-shot initiate request carrying the chat payload. If the initiate call
// fails the connection is closed and no reader is started. Both requests
// use the same configuration snapshot.
func (c *Client) openStream(ctx context.Context, cfg *Configuration, req *ChatRequest) (<-chan Envelope, <-chan error, error) {
	streamReq, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Endpoint+"/chat/stream", nil)
	if err != nil {
		return nil, nil, &StreamError{Err: fmt.Errorf("create request: %w", err)}
	}
	streamReq.Header.Set("Accept", "text/event-stream")
	streamReq.Header.Set("Cache-Control", "no-cache")
	streamReq.Header.Set("Connection", "keep-alive")
	cfg.applyAuth(streamReq.Header)

	// No timeout on the push connection; it lives until the done envelope.
	sseClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := sseClient.Do(streamReq)
	if err != nil {
		return nil, nil, &StreamError{Err: err}
	}
	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, nil, &StreamError{Err: &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(bodyBytes))}}
	}

	init := *req
	init.Stream = true
	initBody, err := json.Marshal(&init)
	if err != nil {
		resp.Body.Close()
		return nil, nil, wrapTransport("initiate chat stream", fmt.Errorf("marshal request body: %w", err))
	}
	if err := c.doRequest(ctx, cfg, http.MethodPost, "/chat/stream/init", initBody, nil); err != nil {
		resp.Body.Close()
		return nil, nil, wrapTransport("initiate chat stream", err)
	}

	envCh := make(chan Envelope) // unbuffered: the consumer paces the reader
	errCh := make(chan error, 1)
	go c.readStream(ctx, resp.Body, envCh, errCh)

	return envCh, errCh, nil
}

// readStream decodes server-sent events from body into envelopes until the
// done envelope, a transport error, or context cancellation. Malformed
// payloads are logged and skipped; they never abort the stream.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, envCh chan<- Envelope, errCh chan<- error) {
	defer close(envCh)
	defer close(errCh)
	defer body.Close()

	reader := bufio.NewReader(body)
	var dataLines []string

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				if err == io.EOF {
					// Connection closed without a done envelope.
					errCh <- io.ErrUnexpectedEOF
				} else {
					errCh <- err
				}
			}
			return
		}

		line = strings.TrimSpace(line)

		if line == "" {
			// Empty line = end of event.
			if len(dataLines) == 0 {
				continue
			}
			data := strings.Join(dataLines, "\n")
			dataLines = nil

			var env Envelope
			if err := json.Unmarshal([]byte(data), &env); err != nil {
				c.logger.Warn("skipping malformed envelope", "error", err)
				continue
			}
			if env.Type == "" {
				c.logger.Warn("skipping envelope without type", "data", data)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case envCh <- env:
			}

			if env.Type == EnvelopeDone {
				// Nothing is processed after the terminal envelope.
				return
			}
			continue
		}

		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// "event:" lines are ignored; the payload carries its own type.
	}
}

// sendStreaming drives one stream onto a fresh ChatResponse accumulator and
// the caller's handlers. Content only grows; action order is preserved; the
// accumulator is returned only when the done envelope arrives. Content
// accumulated before a failure is discarded, not returned.
func (c *Client) sendStreaming(ctx context.Context, cfg *Configuration, req *ChatRequest, onChunk ChunkHandler, onAction ActionHandler) (*ChatResponse, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // releases the connection on every exit path

	envCh, errCh, err := c.openStream(ctx, cfg, req)
	if err != nil {
		return nil, err
	}

	resp := &ChatResponse{}
	for {
		select {
		case <-ctx.Done():
			return nil, &StreamError{Err: ctx.Err()}
		case err, ok := <-errCh:
			if ok && err != nil {
				return nil, &StreamError{Err: err}
			}
			return nil, &StreamError{}
		case env, ok := <-envCh:
			if !ok {
				if err, pending := <-errCh; pending && err != nil {
					return nil, &StreamError{Err: err}
				}
				return nil, &StreamError{}
			}

			switch env.Type {
			case EnvelopeContent:
				resp.Content += env.Content
				if onChunk != nil {
					onChunk(env.Content)
				}
			case EnvelopeAction:
				if env.Action == nil {
					c.logger.Warn("skipping action envelope without action")
					continue
				}
				resp.Actions = append(resp.Actions, *env.Action)
				if onAction != nil {
					if err := onAction(*env.Action); err != nil {
						return nil, fmt.Errorf("action handler: %w", err)
					}
				}
			case EnvelopeDone:
				return resp, nil
			default:
				c.logger.Warn("skipping unrecognized envelope", "type", env.Type)
			}
		}
	}
}
