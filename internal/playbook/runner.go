package playbook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// StepResult is the outcome of one executed step.
type StepResult struct {
	Step *codessa.PlaybookStep
	Err  error
}

// Runner executes playbook steps one at a time, in document order.
type Runner struct {
	client *codessa.Client
	logger *codessa.Logger

	// OnStepStart, when set, is called before each step executes.
	OnStepStart func(step *codessa.PlaybookStep)
	// OnStepDone, when set, is called after each step settles.
	OnStepDone func(result StepResult)
}

func NewRunner(client *codessa.Client, logger *codessa.Logger) *Runner {
	return &Runner{client: client, logger: logger}
}

// Run executes every valid step. A failed step is recorded and its
// siblings still run; only context cancellation stops the playbook.
func (r *Runner) Run(ctx context.Context, pb *Playbook) ([]StepResult, error) {
	var results []StepResult

	for _, step := range pb.Valid() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		step.Status = codessa.StatusRunning
		if r.OnStepStart != nil {
			r.OnStepStart(step)
		}

		executed, err := r.client.ExecutePlaybookStep(ctx, step)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			step.Status = codessa.StatusFailed
			r.logger.Warn("step failed", "id", step.ID, "kind", step.Kind, "error", err)
			result := StepResult{Step: step, Err: err}
			results = append(results, result)
			if r.OnStepDone != nil {
				r.OnStepDone(result)
			}
			continue
		}

		r.logger.Debug("step completed", "id", executed.ID, "kind", executed.Kind)
		result := StepResult{Step: executed}
		results = append(results, result)
		if r.OnStepDone != nil {
			r.OnStepDone(result)
		}
	}

	return results, nil
}

// SummarizeOutput extracts a human-readable line from an opaque step
// output. A top-level "summary" field wins; otherwise the raw JSON is
// shown as-is.
func SummarizeOutput(output json.RawMessage) string {
	if len(output) == 0 {
		return ""
	}
	if s := gjson.GetBytes(output, "summary"); s.Exists() {
		return s.String()
	}
	return string(output)
}

// FormatReport renders results and validation problems as markdown,
// ready for terminal rendering.
func FormatReport(pb *Playbook, results []StepResult) string {
	var b strings.Builder
	b.WriteString("# Playbook run\n\n")

	for _, res := range results {
		marker := "x"
		if res.Err != nil {
			marker = " "
		}
		fmt.Fprintf(&b, "- [%s] **%s** %s\n", marker, res.Step.Kind, res.Step.Description)
		if res.Err != nil {
			fmt.Fprintf(&b, "  - failed: %v\n", res.Err)
		} else if summary := SummarizeOutput(res.Step.Output); summary != "" {
			fmt.Fprintf(&b, "  - %s\n", summary)
		}
	}

	if problems := pb.Problems(); len(problems) > 0 {
		b.WriteString("\n## Skipped cells\n\n")
		for _, p := range problems {
			fmt.Fprintf(&b, "- cell %d: %s\n", p.Cell, p.Reason)
		}
	}

	return b.String()
}
