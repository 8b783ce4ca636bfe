package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the chat transcript component
type Model struct {
	viewport viewport.Model
	items    []Item
	width    int
	height   int
	ready    bool
}

// New creates a new chat model
func New(width, height int) Model {
	vp := viewport.New(width, height)
	vp.SetContent("")
	vp.YPosition = 0

	return Model{
		viewport: vp,
		items:    []Item{},
		width:    width,
		height:   height,
		ready:    true,
	}
}

// Init initializes the chat component
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chat component
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			m.viewport.ViewUp()
		case "pgdown":
			m.viewport.ViewDown()
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the chat component
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.viewport.View()
}

// AddUserMessage appends a user message to the transcript
func (m *Model) AddUserMessage(content string) {
	m.items = append(m.items, Message{Role: RoleUser, Content: content})
	m.updateContent()
}

// StartAssistantMessage opens a new streaming assistant message
func (m *Model) StartAssistantMessage() {
	m.items = append(m.items, Message{Role: RoleAssistant, IsStreaming: true})
	m.updateContent()
}

// AppendChunk appends streamed content to the open assistant message
func (m *Model) AppendChunk(content string) {
	if msg, i := m.lastStreamingMessage(); msg != nil {
		msg.Content += content
		m.items[i] = *msg
		m.updateContent()
	}
}

// AddActionEvent records a proposed action as pending
func (m *Model) AddActionEvent(event ActionEvent) {
	m.items = append(m.items, event)
	m.updateContent()
}

// CompleteActionEvent settles the most recent pending action event
func (m *Model) CompleteActionEvent(output string, err error) {
	for i := len(m.items) - 1; i >= 0; i-- {
		if event, ok := m.items[i].(ActionEvent); ok && !event.Completed && event.Err == nil {
			event.Completed = true
			event.Output = output
			event.Err = err
			m.items[i] = event
			m.updateContent()
			return
		}
	}
}

// EndAssistantMessage marks the open assistant message as complete
func (m *Model) EndAssistantMessage() {
	if msg, i := m.lastStreamingMessage(); msg != nil {
		msg.IsStreaming = false
		m.items[i] = *msg
	}
	m.updateContent()
}

func (m *Model) lastStreamingMessage() (*Message, int) {
	for i := len(m.items) - 1; i >= 0; i-- {
		if msg, ok := m.items[i].(Message); ok {
			if msg.Role == RoleAssistant && msg.IsStreaming {
				return &msg, i
			}
			return nil, -1
		}
	}
	return nil, -1
}

// SetSize updates the chat dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.updateContent()
}

// updateContent rebuilds the viewport content from the transcript
func (m *Model) updateContent() {
	var content strings.Builder

	for i, item := range m.items {
		content.WriteString(item.Render(m.width))
		if i < len(m.items)-1 {
			content.WriteString("\n")
		}
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

// Clear clears the transcript
func (m *Model) Clear() {
	m.items = []Item{}
	m.viewport.SetContent("")
}

// IsEmpty returns true if there are no messages
func (m Model) IsEmpty() bool {
	return len(m.items) == 0
}
