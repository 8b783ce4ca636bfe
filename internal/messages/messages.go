// Package messages defines the Bubble Tea messages exchanged between
// the stream pump and the UI. Every stream message carries the ID of
// the stream it belongs to, so the UI can drop events from a stream
// it already cancelled.
package messages

import (
	"github.com/google/uuid"

	"github.com/codessa-ai/echopilot/internal/workspace"
	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// Stream events from the backend.
type StreamStartMsg struct {
	StreamID uuid.UUID
}

type ChunkMsg struct {
	StreamID uuid.UUID
	Content  string
}

type ActionMsg struct {
	StreamID uuid.UUID
	Action   codessa.Action
}

type ActionResultMsg struct {
	StreamID uuid.UUID
	Result   workspace.Result
	Err      error
}

type DoneMsg struct {
	StreamID uuid.UUID
	Content  string
}

type StreamErrMsg struct {
	StreamID uuid.UUID
	Err      error
}

// Internal app messages.
type ConfigRefreshedMsg struct{}
