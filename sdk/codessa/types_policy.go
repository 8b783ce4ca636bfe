package codessa

// Severity of a policy violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// PolicyCheckRequest is the request body for a policy evaluation.
type PolicyCheckRequest struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// FixEdit is one edit of a suggested fix.
type FixEdit struct {
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
	NewText     string `json:"newText"`
}

// PolicyViolation is one finding produced by the backend's policy engine.
// The client only relays and renders violations.
type PolicyViolation struct {
	Rule      string    `json:"rule"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Line      int       `json:"line"`
	Column    int       `json:"column"`
	EndLine   *int      `json:"endLine,omitempty"`
	EndColumn *int      `json:"endColumn,omitempty"`
	Fix       []FixEdit `json:"fix,omitempty"`
}

type policyCheckResponse struct {
	Violations []PolicyViolation `json:"violations"`
}
