package mock

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// respondTo produces a canned assistant reply keyed off the message.
func respondTo(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "hello") || strings.HasPrefix(lower, "hi"):
		return "Hello! I'm the mock Codessa backend. Ask me to explain, create, or run something."
	case strings.Contains(lower, "explain"):
		return "This code sets up an HTTP client with a configurable endpoint, " +
			"sends the request with a bearer credential when one is configured, " +
			"and decodes the JSON response.\n\n" +
			"```go\nresp, err := client.Do(req)\n```\n\n" +
			"The error path wraps the cause so callers can inspect the status."
	case strings.Contains(lower, "create") || strings.Contains(lower, "write"):
		return "I'll create a small example file for you."
	case strings.Contains(lower, "run") || strings.Contains(lower, "test"):
		return "Running the test suite now."
	default:
		return fmt.Sprintf("You said: %q. This is a canned reply; "+
			"try messages containing explain, create, or run.", message)
	}
}

// actionsFor proposes actions when the message asks for work.
func actionsFor(message string) []codessa.Action {
	lower := strings.ToLower(message)

	var actions []codessa.Action
	if strings.Contains(lower, "create") || strings.Contains(lower, "write") {
		actions = append(actions, codessa.Action{
			Kind:    codessa.ActionCreate,
			Target:  "example/hello.go",
			Content: "package example\n\nfunc Hello() string {\n\treturn \"hello\"\n}\n",
		})
	}
	if strings.Contains(lower, "run") || strings.Contains(lower, "test") {
		actions = append(actions, codessa.Action{
			Kind:    codessa.ActionRun,
			Command: "go test ./...",
		})
	}
	return actions
}

// tokenize splits a reply into whitespace-preserving chunks so the
// stream looks like incremental generation.
func tokenize(s string) []string {
	words := strings.SplitAfter(s, " ")
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// checkContent applies the toy policy rules.
func checkContent(content string) []codessa.PolicyViolation {
	violations := []codessa.PolicyViolation{}

	for i, line := range strings.Split(content, "\n") {
		lineNo := i + 1
		lower := strings.ToLower(line)

		if idx := strings.Index(lower, "password"); idx >= 0 {
			violations = append(violations, codessa.PolicyViolation{
				Rule:     "no-secrets",
				Severity: codessa.SeverityError,
				Message:  "possible hardcoded credential",
				Line:     lineNo,
				Column:   idx + 1,
			})
		}
		if idx := strings.Index(line, "TODO"); idx >= 0 {
			violations = append(violations, codessa.PolicyViolation{
				Rule:     "no-todo",
				Severity: codessa.SeverityInfo,
				Message:  "unresolved TODO",
				Line:     lineNo,
				Column:   idx + 1,
			})
		}
		if len(line) > 120 {
			violations = append(violations, codessa.PolicyViolation{
				Rule:     "line-length",
				Severity: codessa.SeverityWarning,
				Message:  fmt.Sprintf("line is %d characters, limit is 120", len(line)),
				Line:     lineNo,
				Column:   121,
			})
		}
	}

	return violations
}

// outputFor fabricates a step result appropriate to its kind.
func outputFor(step codessa.PlaybookStep) json.RawMessage {
	var out map[string]any
	switch step.Kind {
	case codessa.StepPlan:
		out = map[string]any{
			"summary": "drafted a 3 item plan",
			"items":   []string{"survey the code", "apply the change", "verify"},
		}
	case codessa.StepSearch:
		out = map[string]any{
			"summary": "found 2 matches",
			"matches": []string{"internal/config/config.go:42", "cmd/echopilot/main.go:17"},
		}
	case codessa.StepEdit:
		out = map[string]any{
			"summary": "edited 1 file",
			"files":   []string{"internal/config/config.go"},
		}
	case codessa.StepTest:
		out = map[string]any{
			"summary": "all tests passed",
			"passed":  14,
			"failed":  0,
		}
	case codessa.StepAnalyze:
		out = map[string]any{
			"summary": "no issues detected",
		}
	default:
		out = map[string]any{"summary": "nothing to do"}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return json.RawMessage(`{"summary":"nothing to do"}`)
	}
	return data
}
