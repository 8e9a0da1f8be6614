// Package agent implements the conversational tutor: the reasoning
// loop, tool nodes, the interactive quiz sub-flow and the orchestrator
// that drives them per session.
package agent

import (
	"fmt"

	"github.com/tutorgraph/tutorgraph/internal/llm"
	"github.com/tutorgraph/tutorgraph/internal/tool"
)

// State is the session record threaded through every graph node. It
// is one flat JSON-serializable struct so a checkpoint captures the
// whole session in a single value.
type State struct {
	// Messages is the durable conversation history, append-only.
	Messages []llm.Message `json:"messages"`

	// Subject names the course context for this turn. Set by Advance,
	// read by tool nodes, never written by tools.
	Subject string `json:"subject,omitempty"`

	// Retrieved accumulates metadata of semantic-search results within
	// a turn. Reset at the start of each turn.
	Retrieved []map[string]any `json:"retrieved_context,omitempty"`

	// Quiz is nil unless an interactive quiz is in progress.
	Quiz *QuizSession `json:"quiz,omitempty"`
}

// QuizSession tracks one interactive quiz from generation to summary.
// Answers, Feedback and Scores grow in lockstep, one entry per
// answered question.
type QuizSession struct {
	Topic        string          `json:"topic"`
	NumQuestions int             `json:"num_questions"`
	Difficulty   string          `json:"difficulty,omitempty"`
	Questions    []tool.Question `json:"questions"`
	Index        int             `json:"current_index"`
	Answers      []string        `json:"answers"`
	Feedback     []string        `json:"feedback"`
	Scores       []bool          `json:"scores"`
}

// Validate checks the structural invariants of the state. Used by
// tests after every scenario step.
func (s State) Validate() error {
	for i, msg := range s.Messages {
		switch msg.Role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleTool:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, msg.Role)
		}
		if msg.Role == llm.RoleTool && msg.ToolCallID == "" {
			return fmt.Errorf("message %d: tool result without call id", i)
		}
	}

	if q := s.Quiz; q != nil {
		if q.Index < 0 {
			return fmt.Errorf("quiz: negative question index %d", q.Index)
		}
		if len(q.Answers) != len(q.Feedback) || len(q.Answers) != len(q.Scores) {
			return fmt.Errorf("quiz: answers/feedback/scores out of step: %d/%d/%d",
				len(q.Answers), len(q.Feedback), len(q.Scores))
		}
	}
	return nil
}

// lastToolCalls returns the tool calls on the most recent message, or
// nil when the last message carries none. Tool nodes read their
// pending call here right after the reasoning node appended it.
func lastToolCalls(s State) []llm.ToolCall {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1].ToolCalls
}

// originToolCallID scans backwards for the most recent assistant
// message carrying tool calls and returns the first call's ID. Used by
// quiz finalization to tag its summary with the call that started the
// quiz.
func originToolCallID(s State) string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		msg := s.Messages[i]
		if msg.Role == llm.RoleAssistant && len(msg.ToolCalls) > 0 {
			return msg.ToolCalls[0].ID
		}
	}
	return "unknown"
}
