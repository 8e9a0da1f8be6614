package agent

import (
	"fmt"

	"github.com/tutorgraph/tutorgraph/internal/flow"
	"github.com/tutorgraph/tutorgraph/internal/llm"
)

// think is the reasoning node. It sends the conversation to the model
// with the tool set bound and appends the reply, which either answers
// the student directly or requests a tool call for the router to
// dispatch.
func (a *Agent) think(ctx flow.Context, state State) (State, error) {
	req := llm.Request{
		Messages:    state.Messages,
		Tools:       a.tools.Defs(),
		Model:       a.model,
		Temperature: a.temperature,
	}
	// The persona prompt rides on the request unless the history
	// already opens with a system message.
	if len(state.Messages) == 0 || state.Messages[0].Role != llm.RoleSystem {
		req.System = systemPrompt
	}

	resp, err := a.llm.Complete(ctx, req)
	if err != nil {
		return state, fmt.Errorf("reasoning call: %w", err)
	}

	state.Messages = append(state.Messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})
	return state, nil
}

// route dispatches after reasoning: the first requested tool call
// decides the next node, no call ends the turn. The quiz tool leads
// into the quiz sub-flow instead of a plain tool node.
func (a *Agent) route(ctx flow.Context, state State) string {
	calls := lastToolCalls(state)
	if len(calls) == 0 {
		return flow.END
	}

	name := calls[0].Name
	if name == "generate_quiz" {
		return nodeQuizInit
	}
	return name
}
