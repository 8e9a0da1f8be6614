package agent

import (
	"encoding/json"
	"fmt"

	"github.com/tutorgraph/tutorgraph/internal/flow"
	"github.com/tutorgraph/tutorgraph/internal/llm"
)

// Quiz sub-flow node names. The sub-flow is a small state machine laid
// out as plain graph nodes sharing the session state: init generates
// the questions, present/answer loop once per question with a durable
// suspension at answer, finalize reports the score and hands control
// back to reasoning.
const (
	nodeQuizInit     = "quiz_init"
	nodeQuizPresent  = "quiz_present"
	nodeQuizAnswer   = "quiz_answer"
	nodeQuizFinalize = "quiz_finalize"
)

// quizArgs is the decoded argument set of the generate_quiz call.
type quizArgs struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

// quizInit materializes the entire question list up front and seeds
// the quiz session. Generation failure leaves an empty question list,
// which the rest of the sub-flow turns into a graceful zero-question
// summary instead of a failed turn.
func (a *Agent) quizInit(ctx flow.Context, state State) (State, error) {
	calls := lastToolCalls(state)
	if len(calls) == 0 {
		return state, nil
	}

	var args quizArgs
	if err := json.Unmarshal(calls[0].Arguments, &args); err != nil {
		ctx.Logger().Warn("quiz: bad generation arguments", "error", err)
	}
	if args.NumQuestions <= 0 {
		args.NumQuestions = 5
	}

	quiz := &QuizSession{
		Topic:        args.Topic,
		NumQuestions: args.NumQuestions,
		Difficulty:   args.Difficulty,
		Answers:      []string{},
		Feedback:     []string{},
		Scores:       []bool{},
	}

	questions, err := a.quizGen.Generate(ctx, args.Topic, args.NumQuestions, args.Difficulty)
	if err != nil {
		ctx.Logger().Warn("quiz: question generation failed", "error", err)
		quiz.NumQuestions = 0
	} else {
		quiz.Questions = questions
		if len(questions) < quiz.NumQuestions {
			quiz.NumQuestions = len(questions)
		}
	}

	state.Quiz = quiz
	return state, nil
}

// quizPresent is a checkpointable staging step before the suspension
// point. The question text travels in the interrupt payload, not the
// message history, so nothing is appended here.
func (a *Agent) quizPresent(ctx flow.Context, state State) (State, error) {
	q := state.Quiz
	if q == nil || len(q.Questions) == 0 || q.Index >= len(q.Questions) {
		// Out-of-range or empty quiz; the answer node forces
		// finalization.
		return state, nil
	}
	return state, nil
}

// quizAnswer is the suspension point. On first entry it halts the run
// with the question payload; on resume it consumes the student's
// answer, evaluates it and records progress plus two durable messages.
func (a *Agent) quizAnswer(ctx flow.Context, state State) (State, error) {
	q := state.Quiz
	if q == nil {
		return state, fmt.Errorf("quiz: answer node reached without an active quiz")
	}

	if len(q.Questions) == 0 || q.Index >= len(q.Questions) {
		// Inconsistent session; force the router to finalize.
		q.Index = q.NumQuestions
		state.Messages = append(state.Messages, llm.Message{
			Role:    llm.RoleAssistant,
			Content: "Something went wrong with the question session. Wrapping up...",
		})
		return state, nil
	}

	question := q.Questions[q.Index]

	answer, resumed := ctx.TakeResume()
	if !resumed {
		return state, flow.Suspend(map[string]any{
			"action":          "answer_question",
			"question_num":    q.Index + 1,
			"total_questions": q.NumQuestions,
			"question_text":   question.Text,
		})
	}

	feedback, correct := a.evaluator.Evaluate(ctx, question, answer, q.Topic)

	q.Answers = append(q.Answers, answer)
	q.Feedback = append(q.Feedback, feedback)
	q.Scores = append(q.Scores, correct)
	q.Index++

	marker := "❌"
	if correct {
		marker = "✅"
	}
	feedbackMsg := fmt.Sprintf("%s %s\n\nProgress: %d/%d completed", marker, feedback, q.Index, q.NumQuestions)

	state.Messages = append(state.Messages,
		llm.Message{Role: llm.RoleUser, Content: answer},
		llm.Message{Role: llm.RoleAssistant, Content: feedbackMsg},
	)
	return state, nil
}

// quizRoute loops back for the next question or moves to the summary.
func (a *Agent) quizRoute(ctx flow.Context, state State) string {
	q := state.Quiz
	if q != nil && q.Index < q.NumQuestions {
		return nodeQuizPresent
	}
	return nodeQuizFinalize
}

// quizFinalize computes the score, emits the summary as the result of
// the originating generate_quiz call, and closes the quiz session.
func (a *Agent) quizFinalize(ctx flow.Context, state State) (State, error) {
	q := state.Quiz
	if q == nil {
		return state, fmt.Errorf("quiz: finalize node reached without an active quiz")
	}

	score := 0
	for _, correct := range q.Scores {
		if correct {
			score++
		}
	}
	total := q.NumQuestions
	if total == 0 {
		total = len(q.Scores)
	}
	percentage := 0.0
	if total > 0 {
		percentage = float64(score) / float64(total) * 100
	}

	topic := q.Topic
	if topic == "" {
		topic = "this topic"
	}
	summary := fmt.Sprintf("🎓 Review session complete!\n\nScore: %d/%d (%.0f%%)\n\nGreat work reviewing %s!",
		score, total, percentage, topic)

	state.Messages = append(state.Messages, llm.Message{
		Role:       llm.RoleTool,
		Content:    summary,
		ToolCallID: originToolCallID(state),
	})
	state.Quiz = nil
	return state, nil
}
