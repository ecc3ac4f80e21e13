package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

func keyedTest(letters ...string) *model.Test {
	t := &model.Test{ID: "t1", Title: "Matematika", Subject: "Matematika", GradeLevel: "7"}
	for i, key := range letters {
		q := model.Question{Order: i + 1, Points: 1}
		for _, opt := range []string{"A", "B", "C", "D"} {
			q.AnswerOptions = append(q.AnswerOptions, model.Answer{Text: opt, IsCorrect: opt == key})
		}
		t.Questions = append(t.Questions, q)
	}
	return t
}

func TestGrade_Arithmetic(t *testing.T) {
	e := NewEngine()

	extracted := model.ExtractedAnswers{
		StudentName: "Alisher Navoiy",
		Answers:     map[int]string{1: "A", 2: "B", 3: "X", 4: "D", 5: ""},
		Source:      model.SourceFallbackRegex,
	}
	got := e.Grade(keyedTest("A", "B", "C", "D", "A"), extracted)

	assert.Equal(t, 5, got.TotalQuestions)
	assert.Equal(t, 3, got.CorrectAnswers)
	assert.Equal(t, 2, got.WrongAnswers)
	assert.Equal(t, 3, got.Score)
	assert.InDelta(t, 60.0, got.Percentage, 1e-9)
	assert.Equal(t, model.BandPoor, got.GradeBand)
	assert.Equal(t, "Alisher Navoiy", got.StudentName)
	assert.Equal(t, model.SourceFallbackRegex, got.Source)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.ProcessedAt.IsZero())
}

func TestGrade_MissingAnswerCountsWrong(t *testing.T) {
	e := NewEngine()

	got := e.Grade(keyedTest("A", "B"), model.ExtractedAnswers{
		Answers: map[int]string{1: "A"},
	})

	assert.Equal(t, 1, got.CorrectAnswers)
	assert.Equal(t, 1, got.WrongAnswers)
}

func TestGrade_NoQuestions(t *testing.T) {
	e := NewEngine()

	got := e.Grade(&model.Test{ID: "empty"}, model.ExtractedAnswers{})

	assert.Equal(t, 0, got.TotalQuestions)
	assert.InDelta(t, 0.0, got.Percentage, 1e-9)
	assert.Equal(t, model.BandFail, got.GradeBand)
}

func TestGrade_QuestionWithoutKeyNeverCorrect(t *testing.T) {
	e := NewEngine()

	test := &model.Test{ID: "t2", Questions: []model.Question{{
		Order: 1,
		AnswerOptions: []model.Answer{
			{Text: "A", IsCorrect: false},
			{Text: "B", IsCorrect: false},
		},
	}}}
	got := e.Grade(test, model.ExtractedAnswers{Answers: map[int]string{1: "A"}})

	assert.Equal(t, 0, got.CorrectAnswers)
	assert.Equal(t, 1, got.WrongAnswers)
}

func TestGrade_FirstCorrectAnswerIsCanonical(t *testing.T) {
	e := NewEngine()

	test := &model.Test{ID: "t3", Questions: []model.Question{{
		Order: 1,
		AnswerOptions: []model.Answer{
			{Text: "B", IsCorrect: true},
			{Text: "C", IsCorrect: true},
		},
	}}}

	assert.Equal(t, 1, e.Grade(test, model.ExtractedAnswers{Answers: map[int]string{1: "B"}}).CorrectAnswers)
	assert.Equal(t, 0, e.Grade(test, model.ExtractedAnswers{Answers: map[int]string{1: "C"}}).CorrectAnswers)
}
