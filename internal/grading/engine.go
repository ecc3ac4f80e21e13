// Package grading scores extracted answers against a test's answer key.
package grading

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// Engine computes graded results. It is stateless and safe for
// concurrent use.
type Engine struct{}

// NewEngine returns a grading engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Grade scores the extracted answers against the test's questions. It
// never fails: missing or empty answers count as wrong, and a question
// with no correct answer marked can never score. An empty question list
// yields percentage 0.
func (e *Engine) Grade(test *model.Test, extracted model.ExtractedAnswers) *model.GradedResult {
	var correct, wrong int
	for _, q := range test.Questions {
		letter, ok := extracted.Answers[q.Order]
		if !ok || letter == "" {
			wrong++
			continue
		}
		key := q.CorrectAnswer()
		if key == nil {
			// Data-quality problem in the answer key, not a grading fault.
			zap.L().Warn("grading: question has no correct answer marked",
				zap.String("test_id", test.ID),
				zap.Int("question", q.Order))
			wrong++
			continue
		}
		if letter == key.Text {
			correct++
		} else {
			wrong++
		}
	}

	total := len(test.Questions)
	percentage := 0.0
	if total > 0 {
		percentage = float64(correct) / float64(total) * 100
	}

	return &model.GradedResult{
		ID:             uuid.NewString(),
		TestID:         test.ID,
		StudentName:    extracted.StudentName,
		TotalQuestions: total,
		CorrectAnswers: correct,
		WrongAnswers:   wrong,
		Score:          correct,
		Percentage:     percentage,
		GradeBand:      model.BandFor(percentage),
		Source:         extracted.Source,
		ProcessedAt:    time.Now().UTC(),
	}
}
