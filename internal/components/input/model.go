package input

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codessa-ai/echopilot/internal/styles"
)

// Model wraps a single-message composer.
type Model struct {
	textarea textarea.Model
	width    int
}

// New creates an input model of the given width
func New(width int) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	return Model{
		textarea: ta,
		width:    width,
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles input events
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View renders the composer with its border
func (m Model) View() string {
	return styles.InputBorder.Width(m.width - 2).Render(m.textarea.View())
}

// Value returns the current input text
func (m Model) Value() string {
	return m.textarea.Value()
}

// Clear empties the composer
func (m *Model) Clear() {
	m.textarea.Reset()
}

// Focus gives the composer keyboard focus
func (m *Model) Focus() tea.Cmd {
	return m.textarea.Focus()
}

// Blur removes keyboard focus
func (m *Model) Blur() {
	m.textarea.Blur()
}

// SetWidth resizes the composer
func (m *Model) SetWidth(width int) {
	m.width = width
	m.textarea.SetWidth(width - 4)
}
