package codessa

// ActionKind classifies a workspace instruction emitted by the backend.
type ActionKind string

const (
	ActionEdit   ActionKind = "edit"
	ActionCreate ActionKind = "create"
	ActionDelete ActionKind = "delete"
	ActionRun    ActionKind = "run"
)

// Action is a structured instruction for the client to execute against the
// user's workspace. The client forwards actions verbatim to the caller's
// handler; it never interprets or validates action semantics.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Target  string     `json:"target"`
	Content string     `json:"content,omitempty"`
	Command string     `json:"command,omitempty"`
}

// ChatContext carries optional workspace state alongside a message.
type ChatContext struct {
	WorkspaceRoot string   `json:"workspaceRoot,omitempty"`
	ActiveFile    string   `json:"activeFile,omitempty"`
	SelectedText  string   `json:"selectedText,omitempty"`
	OpenFiles     []string `json:"openFiles,omitempty"`
}

// ChatRequest is the request body for both chat endpoints. It is
// constructed fresh per call and immutable after construction.
type ChatRequest struct {
	Message string       `json:"message"`
	Context *ChatContext `json:"context,omitempty"`
	Stream  bool         `json:"stream"`
}

// ChatResponse is the accumulated chat result. During a stream, Content is
// a running concatenation of chunks and Actions is append-only; the value
// is finalized only when the stream signals completion.
type ChatResponse struct {
	Content string   `json:"content"`
	Actions []Action `json:"actions,omitempty"`
}
