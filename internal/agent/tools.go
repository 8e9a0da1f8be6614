package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tutorgraph/tutorgraph/internal/flow"
	"github.com/tutorgraph/tutorgraph/internal/llm"
)

// webSearchNode executes the pending web_search call and appends its
// textual result.
func (a *Agent) webSearchNode(ctx flow.Context, state State) (State, error) {
	return a.invokeTool(ctx, state, "web_search", nil)
}

// guideLookupNode executes the pending guide_lookup call. The
// session's subject is injected into the arguments when the model did
// not supply one.
func (a *Agent) guideLookupNode(ctx flow.Context, state State) (State, error) {
	return a.invokeTool(ctx, state, "guide_lookup", func(args map[string]any) {
		if subject, _ := args["subject"].(string); subject == "" {
			args["subject"] = state.Subject
		}
	})
}

// ragSearchNode executes the pending rag_search call. On top of the
// generic tool handling it reshapes the result into context chunks and
// accumulates result metadata on the state.
func (a *Agent) ragSearchNode(ctx flow.Context, state State) (State, error) {
	calls := lastToolCalls(state)
	if len(calls) == 0 {
		return state, nil
	}
	call := calls[0]

	t, err := a.tools.Lookup("rag_search")
	if err != nil {
		return state, err
	}

	result, err := t.Invoke(ctx, call.Arguments)
	if err != nil {
		result = fmt.Sprintf(`{"ok":false,"error":%q}`, err.Error())
	}

	var payload struct {
		OK      bool `json:"ok"`
		Results []struct {
			Content  string         `json:"content"`
			Metadata map[string]any `json:"metadata"`
		} `json:"results"`
	}

	content := result
	if err := json.Unmarshal([]byte(result), &payload); err == nil && payload.OK {
		var b strings.Builder
		b.WriteString("This is chunks of context:\n")
		for _, r := range payload.Results {
			fmt.Fprintf(&b, "\n- %s\n", r.Content)
			state.Retrieved = append(state.Retrieved, r.Metadata)
		}
		content = b.String()
	}

	state.Messages = append(state.Messages, llm.Message{
		Role:       llm.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
	})
	return state, nil
}

// invokeTool runs the named tool against the pending call's arguments
// and appends the result as a tool message. mutateArgs, when non-nil,
// may rewrite the decoded arguments before invocation. Tool errors
// become textual results so the reasoning node always has something to
// work with.
func (a *Agent) invokeTool(ctx flow.Context, state State, name string, mutateArgs func(map[string]any)) (State, error) {
	calls := lastToolCalls(state)
	if len(calls) == 0 {
		return state, nil
	}
	call := calls[0]

	t, err := a.tools.Lookup(name)
	if err != nil {
		return state, err
	}

	args := call.Arguments
	if mutateArgs != nil {
		decoded := map[string]any{}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &decoded); err != nil {
				decoded = map[string]any{}
			}
		}
		mutateArgs(decoded)
		if reencoded, err := json.Marshal(decoded); err == nil {
			args = reencoded
		}
	}

	result, err := t.Invoke(ctx, args)
	if err != nil {
		result = fmt.Sprintf("Error invoking %s: %v", name, err)
	}

	state.Messages = append(state.Messages, llm.Message{
		Role:       llm.RoleTool,
		Content:    result,
		ToolCallID: call.ID,
	})
	return state, nil
}
