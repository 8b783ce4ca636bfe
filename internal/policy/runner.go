// Package policy runs backend policy checks over local files and
// renders the findings for the terminal.
package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// Finding ties a violation back to the file it was reported for.
type Finding struct {
	File      string
	Violation codessa.PolicyViolation
}

// Runner checks files against the backend policy engine.
type Runner struct {
	client *codessa.Client
	logger *codessa.Logger
}

func NewRunner(client *codessa.Client, logger *codessa.Logger) *Runner {
	return &Runner{client: client, logger: logger}
}

// languageByExtension maps file extensions to the language identifier
// the policy engine expects. Unknown extensions go out as "plaintext".
var languageByExtension = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescriptreact",
	".js":   "javascript",
	".jsx":  "javascriptreact",
	".py":   "python",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".sh":   "shellscript",
	".md":   "markdown",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".sql":  "sql",
	".html": "html",
	".css":  "css",
}

// Language guesses the policy engine language identifier for a path.
func Language(path string) string {
	if lang, ok := languageByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "plaintext"
}

// ScanFiles checks each file in turn and collects every finding. On
// context cancellation it returns the findings gathered so far along
// with the context error, so a partial report is still printable.
func (r *Runner) ScanFiles(ctx context.Context, paths []string) ([]Finding, error) {
	var findings []Finding

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return findings, fmt.Errorf("read %s: %w", path, err)
		}

		violations, err := r.client.CheckPolicies(ctx, &codessa.PolicyCheckRequest{
			FilePath: path,
			Content:  string(content),
			Language: Language(path),
		})
		if err != nil {
			if ctx.Err() != nil {
				return findings, ctx.Err()
			}
			return findings, fmt.Errorf("check %s: %w", path, err)
		}

		r.logger.Debug("checked file", "path", path, "violations", len(violations))
		for _, v := range violations {
			findings = append(findings, Finding{File: path, Violation: v})
		}
	}

	return findings, nil
}

// CountBySeverity tallies findings per severity level.
func CountBySeverity(findings []Finding) map[codessa.Severity]int {
	counts := make(map[codessa.Severity]int)
	for _, f := range findings {
		counts[f.Violation.Severity]++
	}
	return counts
}

// HasErrors reports whether any finding carries error severity, which
// drives the process exit code.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Violation.Severity == codessa.SeverityError {
			return true
		}
	}
	return false
}
