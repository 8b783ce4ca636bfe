package playbook

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

const samplePlaybook = "# Refactor plan\n\n" +
	"Some narrative text.\n\n" +
	"```step\n" +
	"kind: plan\n" +
	"description: outline the refactor\n" +
	"```\n\n" +
	"```go\n" +
	"package main // not a step, just an example\n" +
	"```\n\n" +
	"```step\n" +
	"kind: edit\n" +
	"description: apply the rename\n" +
	"input:\n" +
	"  file: internal/config/config.go\n" +
	"  symbol: Load\n" +
	"```\n"

func TestParse(t *testing.T) {
	pb, err := Parse([]byte(samplePlaybook))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	steps := pb.Valid()
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if len(pb.Problems()) != 0 {
		t.Fatalf("expected no problems, got %v", pb.Problems())
	}

	if steps[0].Kind != codessa.StepPlan || steps[0].Description != "outline the refactor" {
		t.Errorf("unexpected first step: %+v", steps[0])
	}
	if steps[0].Status != codessa.StatusPending {
		t.Errorf("expected pending status, got %s", steps[0].Status)
	}
	if steps[0].ID == "" || steps[0].ID == steps[1].ID {
		t.Error("expected unique non-empty step IDs")
	}

	if steps[1].Kind != codessa.StepEdit {
		t.Errorf("unexpected second step kind: %s", steps[1].Kind)
	}
	if got := gjson.GetBytes(steps[1].Input, "file").String(); got != "internal/config/config.go" {
		t.Errorf("expected YAML input carried over as JSON, got %s", steps[1].Input)
	}
}

func TestParseMalformedCellIsLocal(t *testing.T) {
	doc := "```step\n" +
		"kind: plan\n" +
		"description: good first step\n" +
		"```\n\n" +
		"```step\n" +
		"kind: [unclosed\n" +
		"```\n\n" +
		"```step\n" +
		"kind: teleport\n" +
		"description: unknown kind\n" +
		"```\n\n" +
		"```step\n" +
		"kind: test\n" +
		"description: good last step\n" +
		"```\n"

	pb, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	steps := pb.Valid()
	if len(steps) != 2 {
		t.Fatalf("expected the two good steps to survive, got %d", len(steps))
	}
	if steps[0].Description != "good first step" || steps[1].Description != "good last step" {
		t.Errorf("unexpected surviving steps: %+v", steps)
	}

	problems := pb.Problems()
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %d", len(problems))
	}
	if problems[0].Cell != 1 || !strings.Contains(problems[0].Reason, "invalid YAML") {
		t.Errorf("unexpected first problem: %+v", problems[0])
	}
	if problems[1].Cell != 2 || !strings.Contains(problems[1].Reason, "teleport") {
		t.Errorf("unexpected second problem: %+v", problems[1])
	}
}

func TestParseMissingDescription(t *testing.T) {
	pb, err := Parse([]byte("```step\nkind: plan\n```\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	problems := pb.Problems()
	if len(problems) != 1 || !strings.Contains(problems[0].Reason, "description") {
		t.Fatalf("expected a description problem, got %v", problems)
	}
}

func TestParseNoSteps(t *testing.T) {
	pb, err := Parse([]byte("# Just prose\n\nNothing runnable here.\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pb.Cells) != 0 {
		t.Errorf("expected no cells, got %d", len(pb.Cells))
	}
}
