package codessa

import "encoding/json"

// StepKind classifies a playbook step.
type StepKind string

const (
	StepPlan    StepKind = "plan"
	StepSearch  StepKind = "search"
	StepEdit    StepKind = "edit"
	StepTest    StepKind = "test"
	StepAnalyze StepKind = "analyze"
)

// Valid reports whether k is a recognized step kind.
func (k StepKind) Valid() bool {
	switch k {
	case StepPlan, StepSearch, StepEdit, StepTest, StepAnalyze:
		return true
	}
	return false
}

// StepStatus is the lifecycle state of a playbook step.
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusRunning   StepStatus = "running"
	StatusCompleted StepStatus = "completed"
	StatusFailed    StepStatus = "failed"
)

// PlaybookStep is one unit of backend-executed work. Input and Output are
// opaque JSON values: their shape is backend-specific and the client never
// inspects them beyond rendering.
type PlaybookStep struct {
	ID          string          `json:"id"`
	Kind        StepKind        `json:"kind"`
	Description string          `json:"description"`
	Input       json.RawMessage `json:"input,omitempty"`
	Output      json.RawMessage `json:"output,omitempty"`
	Status      StepStatus      `json:"status"`
}
