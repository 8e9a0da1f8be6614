package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tutorgraph/tutorgraph/internal/flow"
	"github.com/tutorgraph/tutorgraph/internal/flow/checkpoint"
	"github.com/tutorgraph/tutorgraph/internal/flow/observability"
	"github.com/tutorgraph/tutorgraph/internal/llm"
	"github.com/tutorgraph/tutorgraph/internal/tool"
)

// Node names of the main loop. Tool nodes are named after their tools
// so the router can dispatch on the requested name directly.
const (
	nodeThink       = "think"
	nodeWebSearch   = "web_search"
	nodeGuideLookup = "guide_lookup"
	nodeRAGSearch   = "rag_search"
)

// Agent orchestrates one conversational tutor over a compiled graph.
// All collaborators are injected; the zero value is not usable.
type Agent struct {
	llm       llm.Client
	tools     *tool.Registry
	quizGen   *tool.QuizGenerator
	evaluator *Evaluator
	store     checkpoint.Store

	graph *flow.Compiled[State]

	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	model         string
	temperature   float64
	maxIterations int
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the agent logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records graph execution metrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(a *Agent) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithModel sets the model used for reasoning and evaluation.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

// WithTemperature sets the reasoning temperature.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

// WithMaxIterations caps node executions per turn.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// New builds the agent and compiles its graph.
func New(client llm.Client, tools *tool.Registry, quizGen *tool.QuizGenerator, store checkpoint.Store, opts ...Option) (*Agent, error) {
	if client == nil {
		return nil, errors.New("agent: nil llm client")
	}
	if tools == nil {
		return nil, errors.New("agent: nil tool registry")
	}
	if quizGen == nil {
		return nil, errors.New("agent: nil quiz generator")
	}
	if store == nil {
		return nil, errors.New("agent: nil checkpoint store")
	}

	a := &Agent{
		llm:           client,
		tools:         tools,
		quizGen:       quizGen,
		store:         store,
		logger:        slog.Default(),
		metrics:       observability.NoopMetrics{},
		temperature:   0.1,
		maxIterations: 50,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.evaluator = NewEvaluator(client, a.model)

	graph, err := a.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("agent: build graph: %w", err)
	}
	a.graph = graph
	return a, nil
}

// buildGraph wires the reasoning loop and the quiz sub-flow.
func (a *Agent) buildGraph() (*flow.Compiled[State], error) {
	g := flow.New[State]()

	g.AddNode(nodeThink, a.think)
	g.AddNode(nodeWebSearch, a.webSearchNode)
	g.AddNode(nodeGuideLookup, a.guideLookupNode)
	g.AddNode(nodeRAGSearch, a.ragSearchNode)
	g.AddNode(nodeQuizInit, a.quizInit)
	g.AddNode(nodeQuizPresent, a.quizPresent)
	g.AddNode(nodeQuizAnswer, a.quizAnswer)
	g.AddNode(nodeQuizFinalize, a.quizFinalize)

	g.SetEntry(nodeThink)
	g.AddConditionalEdge(nodeThink, a.route)

	// Every tool node hands control back to reasoning.
	g.AddEdge(nodeWebSearch, nodeThink)
	g.AddEdge(nodeGuideLookup, nodeThink)
	g.AddEdge(nodeRAGSearch, nodeThink)

	g.AddEdge(nodeQuizInit, nodeQuizPresent)
	g.AddEdge(nodeQuizPresent, nodeQuizAnswer)
	g.AddConditionalEdge(nodeQuizAnswer, a.quizRoute)
	g.AddEdge(nodeQuizFinalize, nodeThink)

	return g.Compile()
}

// TurnResult is what one Advance or Resume produces for the caller.
type TurnResult struct {
	Messages    []llm.Message  `json:"messages"`
	Interrupted bool           `json:"interrupted"`
	Interrupt   *InterruptInfo `json:"interrupt_info,omitempty"`
}

// InterruptInfo describes a pending quiz question.
type InterruptInfo struct {
	Action         string `json:"action"`
	QuestionNum    int    `json:"question_num"`
	TotalQuestions int    `json:"total_questions"`
	QuestionText   string `json:"question_text"`
}

// Advance runs one conversational turn for sessionKey. Prior history
// is restored from the latest checkpoint when one exists; a pending
// suspension is abandoned in favor of the new turn. Callers must not
// issue concurrent operations on the same session key.
func (a *Agent) Advance(ctx context.Context, sessionKey, subject, message string) (*TurnResult, error) {
	if sessionKey == "" {
		return nil, errors.New("agent: empty session key")
	}

	state, err := a.loadState(sessionKey)
	if err != nil {
		return nil, err
	}

	// Fresh turn: reset the per-turn accumulator and any stale quiz,
	// pin the subject, append the student's message.
	state.Retrieved = nil
	state.Quiz = nil
	if subject != "" {
		state.Subject = subject
	}
	state.Messages = append(state.Messages, llm.Message{Role: llm.RoleUser, Content: message})

	fctx := flow.NewContext(ctx, flow.WithSession(sessionKey), flow.WithLogger(a.logger))
	final, err := a.graph.Run(fctx, state, a.runOptions()...)
	return a.turnResult(final, err)
}

// Resume continues a suspended quiz with the student's answer. It is
// an error (flow.ErrNotSuspended) when the session is not waiting on a
// question.
func (a *Agent) Resume(ctx context.Context, sessionKey, value string) (*TurnResult, error) {
	if sessionKey == "" {
		return nil, errors.New("agent: empty session key")
	}

	fctx := flow.NewContext(ctx, flow.WithSession(sessionKey), flow.WithLogger(a.logger))
	final, err := a.graph.Resume(fctx, a.store, value, a.runOptions()...)
	return a.turnResult(final, err)
}

// DeleteSession drops every checkpoint of a session. Checkpoints are
// otherwise kept forever; pruning is an operator action.
func (a *Agent) DeleteSession(sessionKey string) error {
	return a.store.DeleteSession(sessionKey)
}

func (a *Agent) runOptions() []flow.RunOption {
	return []flow.RunOption{
		flow.WithCheckpointing(a.store),
		flow.WithMetrics(a.metrics),
		flow.WithMaxIterations(a.maxIterations),
	}
}

// loadState restores session state from the latest checkpoint, or
// returns a zero state for a new session.
func (a *Agent) loadState(sessionKey string) (State, error) {
	cp, err := flow.Latest(a.store, sessionKey)
	if errors.Is(err, flow.ErrNoCheckpoints) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("agent: load session: %w", err)
	}

	var state State
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return State{}, fmt.Errorf("agent: decode session state: %w", err)
	}
	return state, nil
}

// turnResult maps a run outcome onto the caller-facing result. A
// suspension is a successful outcome carrying the question payload.
func (a *Agent) turnResult(state State, err error) (*TurnResult, error) {
	if err == nil {
		return &TurnResult{Messages: state.Messages}, nil
	}

	var intr *flow.Interrupt
	if errors.As(err, &intr) {
		return &TurnResult{
			Messages:    state.Messages,
			Interrupted: true,
			Interrupt:   interruptInfo(intr.Payload),
		}, nil
	}
	return nil, err
}

func interruptInfo(payload map[string]any) *InterruptInfo {
	info := &InterruptInfo{}
	if s, ok := payload["action"].(string); ok {
		info.Action = s
	}
	if s, ok := payload["question_text"].(string); ok {
		info.QuestionText = s
	}
	info.QuestionNum = intField(payload, "question_num")
	info.TotalQuestions = intField(payload, "total_questions")
	return info
}

// intField reads an integer that may have round-tripped through JSON
// as a float64.
func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
