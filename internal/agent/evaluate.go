package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tutorgraph/tutorgraph/internal/llm"
	"github.com/tutorgraph/tutorgraph/internal/tool"
)

// evalTemperature is higher than the reasoning default so feedback
// wording varies between questions.
const evalTemperature = 0.7

// Evaluator judges free-text quiz answers with the model and parses
// its rigid two-line verdict.
type Evaluator struct {
	llm   llm.Client
	model string
}

// NewEvaluator builds an evaluator on the given client.
func NewEvaluator(client llm.Client, model string) *Evaluator {
	return &Evaluator{llm: client, model: model}
}

// Evaluate returns feedback text and a correctness verdict for the
// student's answer. This is a low-stakes review tool, so every failure
// mode fails open: model errors and unparseable replies yield a
// generic encouraging message with correct = true.
func (e *Evaluator) Evaluate(ctx context.Context, question tool.Question, answer, topic string) (string, bool) {
	hint := ""
	if refs := correctOptions(question); len(refs) > 0 {
		hint = "Correct answer(s): " + strings.Join(refs, ", ") + "\n"
	}
	if topic == "" {
		topic = "the current topic"
	}

	prompt := fmt.Sprintf(evalPromptTemplate, topic, question.Text, answer, hint)

	resp, err := e.llm.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Model:       e.model,
		Temperature: evalTemperature,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		return fallbackFeedback(answer), true
	}

	return parseVerdict(resp.Content)
}

// parseVerdict extracts (feedback, correct) from the model reply.
// Verdict detection is substring-based so minor format drift still
// parses; a missing FEEDBACK label falls back to the whole reply.
func parseVerdict(content string) (string, bool) {
	correct := strings.Contains(strings.ToUpper(content), "CORRECT: YES")

	feedback := content
	if idx := strings.Index(strings.ToUpper(content), "FEEDBACK:"); idx >= 0 {
		feedback = content[idx+len("FEEDBACK:"):]
	}
	return strings.TrimSpace(feedback), correct
}

// correctOptions collects the reference answers flagged correct.
func correctOptions(question tool.Question) []string {
	var refs []string
	for _, opt := range question.Options {
		if opt.Correct {
			refs = append(refs, opt.Text)
		}
	}
	return refs
}

func fallbackFeedback(answer string) string {
	return fmt.Sprintf("I received your answer: %q. Let's keep going!", answer)
}
