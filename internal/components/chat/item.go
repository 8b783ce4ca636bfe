package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/codessa-ai/echopilot/internal/styles"
	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// Role represents who sent the message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message
type Message struct {
	Role        Role
	Content     string
	IsStreaming bool
}

// ActionEvent represents a backend-proposed action and, once applied,
// its outcome.
type ActionEvent struct {
	Action    codessa.Action
	Output    string
	Completed bool
	Err       error
}

// Item is anything renderable in the transcript.
type Item interface {
	Render(width int) string
}

var _ Item = Message{}
var _ Item = ActionEvent{}

// Render renders a message with the given width
func (m Message) Render(width int) string {
	var sb strings.Builder

	switch m.Role {
	case RoleUser:
		sb.WriteString(styles.UserLabel.Render("You"))
		sb.WriteString("\n")
	case RoleAssistant:
		sb.WriteString(styles.AssistantLabel.Render("EchoPilot"))
		sb.WriteString("\n")
	}

	content := m.Content
	if m.Role == RoleAssistant && content != "" {
		// Use glamour for markdown rendering
		rendered, err := renderMarkdown(content, width-4)
		if err == nil {
			content = strings.TrimSpace(rendered)
		}
	}

	if m.IsStreaming {
		content += styles.StreamingCursor.Render("▊")
	}

	switch m.Role {
	case RoleUser:
		sb.WriteString(styles.UserMessage.Width(width - 2).Render(content))
	case RoleAssistant:
		sb.WriteString(styles.AssistantMessage.Width(width - 2).Render(content))
	}

	return sb.String()
}

// Render renders an action event as a one-line status entry.
func (e ActionEvent) Render(width int) string {
	var status string
	switch {
	case e.Err != nil:
		status = styles.ActionError.Render("✗")
	case e.Completed:
		status = styles.ActionStatus.Render("✓")
	default:
		status = styles.ActionStatus.Render("...")
	}

	var detail string
	switch e.Action.Kind {
	case codessa.ActionRun:
		detail = truncate(e.Action.Command, 50)
	default:
		detail = truncate(e.Action.Target, 50)
	}

	line := fmt.Sprintf("%s %s %s", status, styles.ActionName.Render(string(e.Action.Kind)), detail)
	if e.Err != nil {
		line += " " + styles.ActionError.Render(truncate(e.Err.Error(), 60))
	} else if e.Completed && e.Output != "" {
		line += " " + truncate(e.Output, 60)
	}
	return styles.ActionEvent.Render(line)
}

// renderMarkdown renders markdown content for the terminal
func renderMarkdown(content string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content, err
	}
	return r.Render(content)
}

// truncate truncates a string to the given length
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// WelcomeText is shown before the first message.
var WelcomeText = `Welcome to EchoPilot!

Type a message and press Enter to start chatting.

Try:
• "Hello" - Get a greeting
• "Explain this code" - Get an explanation
• "Create an example file" - See a proposed file action
• "Run the tests" - See a proposed command`

// EmptyState styles the welcome text.
var EmptyState = lipgloss.NewStyle().
	Foreground(styles.Muted).
	Italic(true).
	Align(lipgloss.Center)
