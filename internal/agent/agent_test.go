package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorgraph/tutorgraph/internal/flow"
	"github.com/tutorgraph/tutorgraph/internal/flow/checkpoint"
	"github.com/tutorgraph/tutorgraph/internal/guide"
	"github.com/tutorgraph/tutorgraph/internal/llm"
	"github.com/tutorgraph/tutorgraph/internal/rag"
	"github.com/tutorgraph/tutorgraph/internal/tool"
)

const testQuizJSON = `[
	{"text": "What is a channel?", "options": [{"text": "A typed conduit", "correct": true}]},
	{"text": "What does sync.WaitGroup do?", "options": [{"text": "Waits for goroutines", "correct": true}]}
]`

// newTestAgent wires an agent on an in-memory checkpoint store with the
// given scripted model. External tools point at unreachable endpoints;
// tests that need them healthy swap in their own registry.
func newTestAgent(t *testing.T, mock *llm.MockClient) *Agent {
	t.Helper()

	guides, err := guide.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { guides.Close() })

	registry := tool.NewRegistry(
		tool.NewWebSearch(tool.WithSearchEndpoint("http://127.0.0.1:1")),
		tool.NewGuideLookup(guides),
		tool.NewRAGSearch(rag.NewClient("http://127.0.0.1:1")),
		tool.NewQuizGenerator(mock),
	)

	agent, err := New(mock, registry, tool.NewQuizGenerator(mock), checkpoint.NewMemory(),
		WithModel("test-model"))
	require.NoError(t, err)
	return agent
}

// requireValid decodes nothing; it just re-checks the message chain the
// agent produced.
func requireValid(t *testing.T, messages []llm.Message) {
	t.Helper()
	require.NoError(t, (State{Messages: messages}).Validate())
}

// TestNew_NilDependencies rejects missing collaborators.
func TestNew_NilDependencies(t *testing.T) {
	mock := llm.NewMockClient("ok")
	registry := tool.NewRegistry()
	quizGen := tool.NewQuizGenerator(mock)
	store := checkpoint.NewMemory()

	_, err := New(nil, registry, quizGen, store)
	assert.ErrorContains(t, err, "nil llm client")
	_, err = New(mock, nil, quizGen, store)
	assert.ErrorContains(t, err, "nil tool registry")
	_, err = New(mock, registry, nil, store)
	assert.ErrorContains(t, err, "nil quiz generator")
	_, err = New(mock, registry, quizGen, nil)
	assert.ErrorContains(t, err, "nil checkpoint store")
}

// TestAdvance_PlainAnswer answers a question without any tool use and
// persists the history for the next turn.
func TestAdvance_PlainAnswer(t *testing.T) {
	mock := llm.NewMockClient("Recursion is a function calling itself.")
	agent := newTestAgent(t, mock)

	result, err := agent.Advance(context.Background(), "s1", "programming", "What is recursion?")
	require.NoError(t, err)

	assert.False(t, result.Interrupted)
	assert.Nil(t, result.Interrupt)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, llm.RoleUser, result.Messages[0].Role)
	assert.Equal(t, "What is recursion?", result.Messages[0].Content)
	assert.Equal(t, llm.RoleAssistant, result.Messages[1].Role)
	requireValid(t, result.Messages)

	// Second turn restores the first turn's history.
	result, err = agent.Advance(context.Background(), "s1", "", "And iteration?")
	require.NoError(t, err)
	require.Len(t, result.Messages, 4)
	assert.Equal(t, "What is recursion?", result.Messages[0].Content)
	assert.Equal(t, "And iteration?", result.Messages[2].Content)
}

// TestAdvance_SessionsAreIsolated keeps histories apart per key.
func TestAdvance_SessionsAreIsolated(t *testing.T) {
	mock := llm.NewMockClient("answer")
	agent := newTestAgent(t, mock)

	_, err := agent.Advance(context.Background(), "alice", "", "hello from alice")
	require.NoError(t, err)

	result, err := agent.Advance(context.Background(), "bob", "", "hello from bob")
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "hello from bob", result.Messages[0].Content)
}

// TestAdvance_EmptySessionKey is rejected up front.
func TestAdvance_EmptySessionKey(t *testing.T) {
	agent := newTestAgent(t, llm.NewMockClient("ok"))

	_, err := agent.Advance(context.Background(), "", "", "hi")
	assert.ErrorContains(t, err, "empty session key")
	_, err = agent.Resume(context.Background(), "", "answer")
	assert.ErrorContains(t, err, "empty session key")
}

// TestAdvance_StartsQuiz suspends on the first question when the model
// requests a quiz.
func TestAdvance_StartsQuiz(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses(
		llm.CallTool("generate_quiz", `{"topic":"go concurrency","num_questions":2}`),
		llm.Text(testQuizJSON),
	)
	agent := newTestAgent(t, mock)

	result, err := agent.Advance(context.Background(), "quiz1", "go", "Quiz me on concurrency")
	require.NoError(t, err)

	assert.True(t, result.Interrupted)
	require.NotNil(t, result.Interrupt)
	assert.Equal(t, "answer_question", result.Interrupt.Action)
	assert.Equal(t, 1, result.Interrupt.QuestionNum)
	assert.Equal(t, 2, result.Interrupt.TotalQuestions)
	assert.Equal(t, "What is a channel?", result.Interrupt.QuestionText)

	// The question rides in the payload, not in the history.
	for _, msg := range result.Messages {
		assert.NotContains(t, msg.Content, "What is a channel?")
	}
}

// TestResume_FullQuiz walks a quiz to completion: each answer advances
// to the next question, the final one yields the score summary, and a
// late resume is rejected.
func TestResume_FullQuiz(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses(
		llm.CallTool("generate_quiz", `{"topic":"go concurrency","num_questions":2}`),
		llm.Text(testQuizJSON),
		llm.Text("CORRECT: YES\nFEEDBACK: Right, a channel is a typed conduit."),
		llm.Text("CORRECT: NO\nFEEDBACK: Not quite, it waits for goroutines to finish."),
		llm.Text("Nice session! Ask me anything else."),
	)
	agent := newTestAgent(t, mock)
	ctx := context.Background()

	result, err := agent.Advance(ctx, "quiz2", "go", "Quiz me on concurrency")
	require.NoError(t, err)
	require.True(t, result.Interrupted)

	// First answer: feedback recorded, second question presented.
	result, err = agent.Resume(ctx, "quiz2", "a typed conduit")
	require.NoError(t, err)
	require.True(t, result.Interrupted)
	assert.Equal(t, 2, result.Interrupt.QuestionNum)
	assert.Equal(t, "What does sync.WaitGroup do?", result.Interrupt.QuestionText)

	last := result.Messages[len(result.Messages)-1]
	assert.Equal(t, llm.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "✅")
	assert.Contains(t, last.Content, "Progress: 1/2 completed")

	// Second answer: quiz finalizes and reasoning wraps up the turn.
	result, err = agent.Resume(ctx, "quiz2", "no idea")
	require.NoError(t, err)
	assert.False(t, result.Interrupted)

	var summary string
	for _, msg := range result.Messages {
		if msg.Role == llm.RoleTool && strings.Contains(msg.Content, "Review session complete") {
			summary = msg.Content
		}
	}
	require.NotEmpty(t, summary, "expected a quiz summary tool message")
	assert.Contains(t, summary, "Score: 1/2 (50%)")
	assert.Contains(t, summary, "go concurrency")

	last = result.Messages[len(result.Messages)-1]
	assert.Equal(t, "Nice session! Ask me anything else.", last.Content)
	requireValid(t, result.Messages)

	// The session is no longer suspended.
	_, err = agent.Resume(ctx, "quiz2", "another answer")
	assert.ErrorIs(t, err, flow.ErrNotSuspended)
}

// TestResume_UnknownSession has nothing to continue.
func TestResume_UnknownSession(t *testing.T) {
	agent := newTestAgent(t, llm.NewMockClient("ok"))

	_, err := agent.Resume(context.Background(), "never-seen", "answer")
	assert.ErrorIs(t, err, flow.ErrNoCheckpoints)
}

// TestAdvance_AbandonsPendingQuiz lets a new turn supersede a pending
// question instead of failing.
func TestAdvance_AbandonsPendingQuiz(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses(
		llm.CallTool("generate_quiz", `{"topic":"go","num_questions":2}`),
		llm.Text(testQuizJSON),
		llm.Text("Sure, let's talk about something else."),
	)
	agent := newTestAgent(t, mock)
	ctx := context.Background()

	result, err := agent.Advance(ctx, "quiz3", "go", "Quiz me")
	require.NoError(t, err)
	require.True(t, result.Interrupted)

	result, err = agent.Advance(ctx, "quiz3", "", "Actually, forget the quiz")
	require.NoError(t, err)
	assert.False(t, result.Interrupted)
	last := result.Messages[len(result.Messages)-1]
	assert.Equal(t, "Sure, let's talk about something else.", last.Content)
}

// TestAdvance_QuizGenerationFails degrades to an empty-quiz summary
// instead of failing the turn.
func TestAdvance_QuizGenerationFails(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses(
		llm.CallTool("generate_quiz", `{"topic":"go","num_questions":3}`),
		llm.Text("Sorry, I cannot produce JSON today."),
		llm.Text("Let's try the quiz again later."),
	)
	agent := newTestAgent(t, mock)

	result, err := agent.Advance(context.Background(), "quiz4", "go", "Quiz me")
	require.NoError(t, err)
	assert.False(t, result.Interrupted)

	var summary string
	for _, msg := range result.Messages {
		if msg.Role == llm.RoleTool && strings.Contains(msg.Content, "Review session complete") {
			summary = msg.Content
		}
	}
	require.NotEmpty(t, summary)
	assert.Contains(t, summary, "Score: 0/0 (0%)")
}

// TestAdvance_SearchFailureRecovers finishes the turn even when the
// search backend is unreachable: the failure feeds back into reasoning
// as text.
func TestAdvance_SearchFailureRecovers(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses(
		llm.CallTool("web_search", `{"query":"latest go release"}`),
		llm.Text("I could not reach the web, but from what I know..."),
	)
	agent := newTestAgent(t, mock)

	result, err := agent.Advance(context.Background(), "s-search", "", "What's the latest Go release?")
	require.NoError(t, err)
	assert.False(t, result.Interrupted)

	var toolMsg *llm.Message
	for i := range result.Messages {
		if result.Messages[i].Role == llm.RoleTool {
			toolMsg = &result.Messages[i]
		}
	}
	require.NotNil(t, toolMsg, "expected a tool result message")
	assert.Contains(t, toolMsg.Content, "Error performing web search")
	assert.NotEmpty(t, toolMsg.ToolCallID)

	last := result.Messages[len(result.Messages)-1]
	assert.Equal(t, llm.RoleAssistant, last.Role)
	requireValid(t, result.Messages)
}

// TestAdvance_SendsPersona binds the tutor persona and the tool set on
// the reasoning request.
func TestAdvance_SendsPersona(t *testing.T) {
	mock := llm.NewMockClient("hello")
	agent := newTestAgent(t, mock)

	_, err := agent.Advance(context.Background(), "s-sys", "", "hi")
	require.NoError(t, err)

	last := mock.LastCall()
	require.NotNil(t, last)
	assert.Equal(t, systemPrompt, last.System)
	assert.Len(t, last.Tools, 4)
	assert.Equal(t, "test-model", last.Model)
}

// TestDeleteSession wipes a session so the next turn starts fresh.
func TestDeleteSession(t *testing.T) {
	mock := llm.NewMockClient("answer")
	agent := newTestAgent(t, mock)
	ctx := context.Background()

	_, err := agent.Advance(ctx, "s-del", "", "first")
	require.NoError(t, err)
	require.NoError(t, agent.DeleteSession("s-del"))

	result, err := agent.Advance(ctx, "s-del", "", "second")
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "second", result.Messages[0].Content)
}
