package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorgraph/tutorgraph/internal/llm"
)

const sampleQuizJSON = `[
	{"text": "What is a goroutine?", "difficulty": "easy",
	 "options": [{"text": "A lightweight thread", "correct": true}, {"text": "A mutex", "correct": false}]},
	{"text": "What does the select statement do?", "difficulty": "medium",
	 "options": [{"text": "Waits on multiple channels", "correct": true}, {"text": "Sorts slices", "correct": false}]}
]`

// TestQuizGenerator_Generate parses a model-produced question list.
func TestQuizGenerator_Generate(t *testing.T) {
	mock := llm.NewMockClient(sampleQuizJSON)
	gen := NewQuizGenerator(mock)

	questions, err := gen.Generate(context.Background(), "go concurrency", 5, "easy")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "What is a goroutine?", questions[0].Text)
	assert.True(t, questions[0].Options[0].Correct)

	// The prompt carries topic, count and difficulty.
	last := mock.LastCall()
	require.NotNil(t, last)
	assert.Contains(t, last.Messages[0].Content, "go concurrency")
	assert.Contains(t, last.Messages[0].Content, "easy")
}

// TestQuizGenerator_Generate_Fenced tolerates markdown code fences.
func TestQuizGenerator_Generate_Fenced(t *testing.T) {
	mock := llm.NewMockClient("```json\n" + sampleQuizJSON + "\n```")
	gen := NewQuizGenerator(mock)

	questions, err := gen.Generate(context.Background(), "go concurrency", 5, "")
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

// TestQuizGenerator_Generate_Truncates caps the list at the requested
// count.
func TestQuizGenerator_Generate_Truncates(t *testing.T) {
	mock := llm.NewMockClient(sampleQuizJSON)
	gen := NewQuizGenerator(mock)

	questions, err := gen.Generate(context.Background(), "go concurrency", 1, "")
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

// TestQuizGenerator_Generate_EmptyTopic rejects blank topics.
func TestQuizGenerator_Generate_EmptyTopic(t *testing.T) {
	gen := NewQuizGenerator(llm.NewMockClient(sampleQuizJSON))

	_, err := gen.Generate(context.Background(), "   ", 5, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty topic")
}

// TestQuizGenerator_Generate_BadJSON fails when the model does not
// return a question array.
func TestQuizGenerator_Generate_BadJSON(t *testing.T) {
	gen := NewQuizGenerator(llm.NewMockClient("Sure! Here are some questions..."))

	_, err := gen.Generate(context.Background(), "go", 3, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse questions")
}

// TestQuizGenerator_Generate_LLMError wraps transport failures.
func TestQuizGenerator_Generate_LLMError(t *testing.T) {
	boom := errors.New("connection reset")
	gen := NewQuizGenerator(llm.NewMockClient("").WithError(boom))

	_, err := gen.Generate(context.Background(), "go", 3, "")
	assert.ErrorIs(t, err, boom)
}

// TestParseQuestions_FiltersEmpty drops questions with blank text and
// errors when nothing usable remains.
func TestParseQuestions_FiltersEmpty(t *testing.T) {
	questions, err := parseQuestions(`[{"text": ""}, {"text": "Real question?"}]`)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Real question?", questions[0].Text)

	_, err = parseQuestions(`[{"text": ""}, {"text": "  "}]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable questions")
}

// TestQuizGenerator_Invoke returns results and failures as text.
func TestQuizGenerator_Invoke(t *testing.T) {
	gen := NewQuizGenerator(llm.NewMockClient(sampleQuizJSON))

	result, err := gen.Invoke(context.Background(), json.RawMessage(`{"topic":"go","num_questions":2}`))
	require.NoError(t, err)

	var questions []Question
	require.NoError(t, json.Unmarshal([]byte(result), &questions))
	assert.Len(t, questions, 2)

	// Failures become textual results, not errors.
	result, err = gen.Invoke(context.Background(), json.RawMessage(`{"topic":""}`))
	require.NoError(t, err)
	assert.Contains(t, result, "Error generating quiz")
}
