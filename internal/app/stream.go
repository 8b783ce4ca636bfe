package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/codessa-ai/echopilot/internal/messages"
	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// streamCmd pumps one chat exchange into the program as messages. It
// runs in a Bubble Tea command goroutine; actions are applied inline
// so the stream does not advance past an action until it settles.
func (m Model) streamCmd(ctx context.Context, req *codessa.ChatRequest, id uuid.UUID) tea.Cmd {
	client := m.client
	applier := m.applier
	shared := m.shared

	if !client.Configuration().StreamingEnabled {
		return func() tea.Msg {
			p := shared.GetProgram()
			p.Send(messages.StreamStartMsg{StreamID: id})

			resp, err := client.SendChatMessage(ctx, req, nil, nil)
			if err != nil {
				return messages.StreamErrMsg{StreamID: id, Err: err}
			}

			p.Send(messages.ChunkMsg{StreamID: id, Content: resp.Content})
			for _, action := range resp.Actions {
				p.Send(messages.ActionMsg{StreamID: id, Action: action})
				result, applyErr := applier.Apply(ctx, action)
				p.Send(messages.ActionResultMsg{StreamID: id, Result: result, Err: applyErr})
			}
			return messages.DoneMsg{StreamID: id, Content: resp.Content}
		}
	}

	return func() tea.Msg {
		envCh, errCh, err := client.StreamChat(ctx, req)
		if err != nil {
			return messages.StreamErrMsg{StreamID: id, Err: err}
		}

		p := shared.GetProgram()
		p.Send(messages.StreamStartMsg{StreamID: id})

		var content string
		for env := range envCh {
			switch env.Type {
			case codessa.EnvelopeContent:
				content += env.Content
				p.Send(messages.ChunkMsg{StreamID: id, Content: env.Content})

			case codessa.EnvelopeAction:
				if env.Action == nil {
					continue
				}
				p.Send(messages.ActionMsg{StreamID: id, Action: *env.Action})
				result, applyErr := applier.Apply(ctx, *env.Action)
				p.Send(messages.ActionResultMsg{StreamID: id, Result: result, Err: applyErr})

			case codessa.EnvelopeDone:
				return messages.DoneMsg{StreamID: id, Content: content}
			}
		}

		if ctx.Err() != nil {
			// Cancelled locally; the UI already moved on.
			return nil
		}
		streamErr := <-errCh
		if streamErr == nil {
			// The reader only closes the envelope channel without a
			// done envelope when something went wrong.
			streamErr = &codessa.StreamError{}
		} else {
			streamErr = &codessa.StreamError{Err: streamErr}
		}
		return messages.StreamErrMsg{StreamID: id, Err: streamErr}
	}
}
