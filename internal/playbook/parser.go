// Package playbook parses markdown playbooks and runs their steps
// against the backend.
//
// A playbook is a markdown document whose fenced code blocks tagged
// "step" each describe one step as YAML:
//
//	```step
//	kind: edit
//	description: rename the config loader
//	input:
//	  file: internal/config/config.go
//	```
//
// Everything outside step blocks is narrative and ignored by the
// runner.
package playbook

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// ValidationError marks one malformed step cell. It is cell-local:
// sibling cells parse and run regardless.
type ValidationError struct {
	Cell   int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("playbook cell %d: %s", e.Cell, e.Reason)
}

// Cell is one step block in document order. Exactly one of Step and
// Err is set.
type Cell struct {
	Index int
	Step  *codessa.PlaybookStep
	Err   *ValidationError
}

// Playbook is a parsed document.
type Playbook struct {
	Cells []Cell
}

// Valid returns the runnable steps in document order.
func (p *Playbook) Valid() []*codessa.PlaybookStep {
	var steps []*codessa.PlaybookStep
	for _, cell := range p.Cells {
		if cell.Step != nil {
			steps = append(steps, cell.Step)
		}
	}
	return steps
}

// Problems returns the validation errors in document order.
func (p *Playbook) Problems() []*ValidationError {
	var errs []*ValidationError
	for _, cell := range p.Cells {
		if cell.Err != nil {
			errs = append(errs, cell.Err)
		}
	}
	return errs
}

// stepSpec is the YAML shape of a step cell body.
type stepSpec struct {
	Kind        string         `yaml:"kind"`
	Description string         `yaml:"description"`
	Input       map[string]any `yaml:"input"`
}

// Parse extracts the step cells from a markdown document. A malformed
// cell becomes a Cell carrying a ValidationError instead of failing
// the whole document; only a broken markdown walk returns an error.
func Parse(source []byte) (*Playbook, error) {
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	pb := &Playbook{}
	index := 0

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		lang := ""
		if fenced.Info != nil {
			lang = string(fenced.Info.Text(source))
		}
		if lang != "step" {
			return ast.WalkSkipChildren, nil
		}

		var body bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			body.Write(line.Value(source))
		}

		pb.Cells = append(pb.Cells, parseCell(index, body.Bytes()))
		index++
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}

	return pb, nil
}

func parseCell(index int, body []byte) Cell {
	var def stepSpec
	if err := yaml.Unmarshal(body, &def); err != nil {
		return Cell{Index: index, Err: &ValidationError{
			Cell:   index,
			Reason: fmt.Sprintf("invalid YAML: %v", err),
		}}
	}

	kind := codessa.StepKind(def.Kind)
	if !kind.Valid() {
		return Cell{Index: index, Err: &ValidationError{
			Cell:   index,
			Reason: fmt.Sprintf("unknown step kind %q", def.Kind),
		}}
	}
	if def.Description == "" {
		return Cell{Index: index, Err: &ValidationError{
			Cell:   index,
			Reason: "step has no description",
		}}
	}

	var input json.RawMessage
	if def.Input != nil {
		data, err := json.Marshal(def.Input)
		if err != nil {
			return Cell{Index: index, Err: &ValidationError{
				Cell:   index,
				Reason: fmt.Sprintf("input not representable as JSON: %v", err),
			}}
		}
		input = data
	}

	return Cell{Index: index, Step: &codessa.PlaybookStep{
		ID:          uuid.NewString(),
		Kind:        kind,
		Description: def.Description,
		Input:       input,
		Status:      codessa.StatusPending,
	}}
}
