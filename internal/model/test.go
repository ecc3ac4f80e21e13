package model

// Answer is one answer option of a question. For single-answer questions
// exactly one option should have IsCorrect set; the loader warns when none
// does, but grading tolerates it (such a question can never score correct).
type Answer struct {
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct" yaml:"correct"`
}

// Question is a single test question with its answer options.
type Question struct {
	Order         int      `json:"order" yaml:"order"`
	Text          string   `json:"text" yaml:"text"`
	Points        int      `json:"points" yaml:"points"`
	AnswerOptions []Answer `json:"answers" yaml:"answers"`
}

// CorrectAnswer returns the first option marked correct, or nil when the
// question has no answer key.
func (q Question) CorrectAnswer() *Answer {
	for i := range q.AnswerOptions {
		if q.AnswerOptions[i].IsCorrect {
			return &q.AnswerOptions[i]
		}
	}
	return nil
}

// Test is an answer key: an ordered set of questions plus the metadata the
// exporter puts on the summary sheet.
type Test struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Subject    string     `json:"subject" yaml:"subject"`
	GradeLevel string     `json:"grade_level" yaml:"grade_level"`
	Questions  []Question `json:"questions" yaml:"questions"`
}
