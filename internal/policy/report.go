package policy

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	summaryStyle = lipgloss.NewStyle().Bold(true)
)

func severityStyle(s codessa.Severity) lipgloss.Style {
	switch s {
	case codessa.SeverityError:
		return errorStyle
	case codessa.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// FormatFinding renders one finding as a compiler-style line:
// file:line:col severity rule message.
func FormatFinding(f Finding) string {
	v := f.Violation
	return fmt.Sprintf("%s:%d:%d %s %s %s",
		f.File, v.Line, v.Column,
		severityStyle(v.Severity).Render(string(v.Severity)),
		ruleStyle.Render("["+v.Rule+"]"),
		v.Message,
	)
}

// FormatReport renders all findings plus a severity summary line.
func FormatReport(findings []Finding) string {
	if len(findings) == 0 {
		return summaryStyle.Render("no policy violations found")
	}

	var b strings.Builder
	for _, f := range findings {
		b.WriteString(FormatFinding(f))
		b.WriteByte('\n')
	}

	counts := CountBySeverity(findings)
	b.WriteString(summaryStyle.Render(fmt.Sprintf(
		"%d violations (%d errors, %d warnings, %d info)",
		len(findings),
		counts[codessa.SeverityError],
		counts[codessa.SeverityWarning],
		counts[codessa.SeverityInfo],
	)))
	return b.String()
}
