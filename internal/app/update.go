package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/codessa-ai/echopilot/internal/components/chat"
	"github.com/codessa-ai/echopilot/internal/messages"
	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// Update handles all application messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Reserve space for: header (1), input (5), status bar (1), padding (2)
		chatHeight := msg.Height - 9
		if chatHeight < 5 {
			chatHeight = 5
		}

		m.chat.SetSize(msg.Width, chatHeight)
		m.input.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.state == StateStreaming && m.cancel != nil {
				// Cancel the current stream; its remaining messages
				// will arrive tagged with the old ID and be dropped.
				m.cancel()
				m.cancel = nil
				m.streamID = uuid.Nil
				m.state = StateIdle
				m.chat.EndAssistantMessage()
				return m, m.input.Focus()
			}
			return m, tea.Quit

		case "enter":
			if m.state == StateIdle && m.input.Value() != "" {
				return m.sendMessage()
			}

		case "ctrl+l":
			m.chat.Clear()
			return m, nil
		}

	case messages.ConfigRefreshedMsg:
		// Settings were re-read; a previous connection error may no
		// longer apply.
		if m.state == StateError {
			m.state = StateIdle
			m.err = nil
		}
		return m, nil

	case messages.StreamStartMsg:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		m.state = StateStreaming
		m.chat.StartAssistantMessage()
		return m, nil

	case messages.ChunkMsg:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		m.chat.AppendChunk(msg.Content)
		return m, nil

	case messages.ActionMsg:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		m.chat.AddActionEvent(chat.ActionEvent{Action: msg.Action})
		return m, nil

	case messages.ActionResultMsg:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		m.chat.CompleteActionEvent(msg.Result.Output, msg.Err)
		return m, nil

	case messages.DoneMsg:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		m.chat.EndAssistantMessage()
		m.state = StateIdle
		m.streamID = uuid.Nil
		m.cancel = nil
		return m, m.input.Focus()

	case messages.StreamErrMsg:
		if msg.StreamID != m.streamID {
			return m, nil
		}
		m.err = msg.Err
		m.state = StateError
		m.streamID = uuid.Nil
		m.cancel = nil
		m.chat.EndAssistantMessage()
		return m, m.input.Focus()
	}

	// Update child components when idle
	if m.state == StateIdle {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Always allow chat scrolling
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// sendMessage sends the current input to the backend
func (m Model) sendMessage() (tea.Model, tea.Cmd) {
	content := m.input.Value()

	m.chat.AddUserMessage(content)
	m.input.Clear()
	m.input.Blur()
	m.err = nil
	m.state = StateStreaming

	m.streamID = uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	req := &codessa.ChatRequest{
		Message: content,
		Context: &codessa.ChatContext{
			WorkspaceRoot: m.applier.Root(),
		},
	}

	return m, m.streamCmd(ctx, req, m.streamID)
}
