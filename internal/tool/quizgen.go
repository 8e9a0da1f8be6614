package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tutorgraph/tutorgraph/internal/llm"
)

// Answer is one multiple-choice option with its correctness flag. The
// flags never reach the student; they are reference material for the
// answer evaluator.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is one generated quiz question.
type Question struct {
	Text       string   `json:"text"`
	Difficulty string   `json:"difficulty,omitempty"`
	Options    []Answer `json:"options,omitempty"`
}

// QuizGenerator produces a full question list in a single model call.
type QuizGenerator struct {
	llm    llm.Client
	schema *jsonschema.Schema
}

// QuizGenInput is the argument schema for the generate_quiz tool.
type QuizGenInput struct {
	Topic        string `json:"topic" jsonschema_description:"The topic about which to generate the quiz"`
	NumQuestions int    `json:"num_questions" jsonschema_description:"Number of questions to generate"`
	Difficulty   string `json:"difficulty,omitempty" jsonschema_description:"Desired difficulty level (easy, medium, hard)"`
}

const maxQuizQuestions = 20

const quizGenPrompt = `Generate %d quiz questions about: %s.
Difficulty: %s.

Respond with ONLY a JSON array, no prose. Each element:
{"text": "the question", "difficulty": "easy|medium|hard", "options": [{"text": "an answer", "correct": true|false}, ...]}

Each question has exactly one correct option. Questions must be
answerable in free text by a student studying the topic.`

// NewQuizGenerator builds the generate_quiz tool backed by client.
func NewQuizGenerator(client llm.Client) *QuizGenerator {
	return &QuizGenerator{llm: client, schema: mustSchema[QuizGenInput]()}
}

func (q *QuizGenerator) Name() string { return "generate_quiz" }

func (q *QuizGenerator) Description() string {
	return "Start an interactive quiz: generate multiple-choice questions about a topic and present them one at a time."
}

func (q *QuizGenerator) Schema() *jsonschema.Schema { return q.schema }

// Invoke implements Tool, returning the generated questions as JSON.
func (q *QuizGenerator) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input QuizGenInput
	if err := json.Unmarshal(args, &input); err != nil {
		return fmt.Sprintf("Error generating quiz: bad arguments: %v", err), nil
	}

	questions, err := q.Generate(ctx, input.Topic, input.NumQuestions, input.Difficulty)
	if err != nil {
		return fmt.Sprintf("Error generating quiz: %v", err), nil
	}

	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Sprintf("Error generating quiz: encode result: %v", err), nil
	}
	return string(data), nil
}

// Generate asks the model for the entire question list up front.
func (q *QuizGenerator) Generate(ctx context.Context, topic string, numQuestions int, difficulty string) ([]Question, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("quiz: empty topic")
	}
	if numQuestions <= 0 {
		numQuestions = 5
	}
	if numQuestions > maxQuizQuestions {
		numQuestions = maxQuizQuestions
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	resp, err := q.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(quizGenPrompt, numQuestions, topic, difficulty),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("quiz: generation call: %w", err)
	}

	questions, err := parseQuestions(resp.Content)
	if err != nil {
		return nil, err
	}
	if len(questions) > numQuestions {
		questions = questions[:numQuestions]
	}
	return questions, nil
}

// parseQuestions decodes the model's JSON array, tolerating markdown
// code fences around it.
func parseQuestions(content string) ([]Question, error) {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var questions []Question
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("quiz: parse questions: %w", err)
	}

	valid := questions[:0]
	for _, question := range questions {
		if strings.TrimSpace(question.Text) != "" {
			valid = append(valid, question)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("quiz: model returned no usable questions")
	}
	return valid, nil
}
