// Package mock implements a local stand-in for the Codessa backend,
// useful for developing the client without network access.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// Server serves canned responses on the full workbench API surface.
type Server struct {
	addr   string
	delay  time.Duration
	logger *codessa.Logger

	// pending hands the body of a stream init to the paired SSE
	// connection that is already waiting for it.
	pending chan codessa.ChatRequest
}

// NewServer returns a mock backend listening on addr. delay paces the
// streamed tokens so the UI's incremental rendering is visible.
func NewServer(addr string, delay time.Duration, logger *codessa.Logger) *Server {
	return &Server{
		addr:    addr,
		delay:   delay,
		logger:  logger,
		pending: make(chan codessa.ChatRequest, 8),
	}
}

// Handler builds the router. Exposed separately so tests can drive the
// mock through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Post("/chat/stream/init", s.handleStreamInit)
	r.Get("/chat/stream", s.handleStream)
	r.Post("/policy/check", s.handlePolicyCheck)
	r.Post("/playbook/execute", s.handlePlaybookExecute)

	return r
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("mock backend listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req codessa.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := codessa.ChatResponse{
		Content: respondTo(req.Message),
		Actions: actionsFor(req.Message),
	}
	writeJSON(w, resp)
}

func (s *Server) handleStreamInit(w http.ResponseWriter, r *http.Request) {
	var req codessa.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	select {
	case s.pending <- req:
		writeJSON(w, map[string]any{"accepted": true})
	default:
		http.Error(w, "no stream waiting for this init", http.StatusConflict)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var req codessa.ChatRequest
	select {
	case req = <-s.pending:
	case <-r.Context().Done():
		return
	case <-time.After(30 * time.Second):
		return
	}

	send := func(env codessa.Envelope) bool {
		data, err := json.Marshal(env)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	for _, token := range tokenize(respondTo(req.Message)) {
		if r.Context().Err() != nil {
			return
		}
		if !send(codessa.Envelope{Type: codessa.EnvelopeContent, Content: token}) {
			return
		}
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}

	for _, action := range actionsFor(req.Message) {
		a := action
		if !send(codessa.Envelope{Type: codessa.EnvelopeAction, Action: &a}) {
			return
		}
	}

	send(codessa.Envelope{Type: codessa.EnvelopeDone})
}

func (s *Server) handlePolicyCheck(w http.ResponseWriter, r *http.Request) {
	var req codessa.PolicyCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{"violations": checkContent(req.Content)})
}

func (s *Server) handlePlaybookExecute(w http.ResponseWriter, r *http.Request) {
	var step codessa.PlaybookStep
	if err := json.NewDecoder(r.Body).Decode(&step); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !step.Kind.Valid() {
		http.Error(w, fmt.Sprintf("unknown step kind %q", step.Kind), http.StatusBadRequest)
		return
	}

	step.Status = codessa.StatusCompleted
	step.Output = outputFor(step)
	writeJSON(w, step)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
