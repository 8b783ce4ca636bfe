// Package app wires the chat TUI together: the transcript, the
// composer, the streaming pump, and the action applier.
package app

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/codessa-ai/echopilot/internal/components/chat"
	"github.com/codessa-ai/echopilot/internal/components/input"
	"github.com/codessa-ai/echopilot/internal/workspace"
	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// State represents the application state
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateError
)

// SharedState holds state that needs to be shared between model copies
type SharedState struct {
	mu      sync.Mutex
	program *tea.Program
}

// SetProgram sets the program reference
func (s *SharedState) SetProgram(p *tea.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = p
}

// GetProgram gets the program reference
func (s *SharedState) GetProgram() *tea.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program
}

// Model is the main application model
type Model struct {
	chat    chat.Model
	input   input.Model
	client  *codessa.Client
	applier *workspace.Applier
	shared  *SharedState
	state   State

	// streamID identifies the stream currently rendering; messages
	// tagged with any other ID are from a cancelled stream and are
	// dropped.
	streamID uuid.UUID
	cancel   context.CancelFunc

	width  int
	height int
	err    error
	ready  bool
}

// New creates a new application model
func New(client *codessa.Client, applier *workspace.Applier) Model {
	return Model{
		chat:    chat.New(80, 20),
		input:   input.New(80),
		client:  client,
		applier: applier,
		shared:  &SharedState{},
		state:   StateIdle,
	}
}

// SetProgram sets the tea.Program reference for stream callbacks
func (m *Model) SetProgram(p *tea.Program) {
	m.shared.SetProgram(p)
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.Init(),
		m.chat.Init(),
	)
}
