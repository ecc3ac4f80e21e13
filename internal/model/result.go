package model

import "time"

// GradeBand is the discretized performance category derived from percentage.
type GradeBand string

const (
	BandExcellent    GradeBand = "EXCELLENT"
	BandGood         GradeBand = "GOOD"
	BandSatisfactory GradeBand = "SATISFACTORY"
	BandPoor         GradeBand = "POOR"
	BandFail         GradeBand = "FAIL"
)

// bandLabels maps bands to the Uzbek display labels used in exports.
var bandLabels = map[GradeBand]string{
	BandExcellent:    "A'lo",
	BandGood:         "Yaxshi",
	BandSatisfactory: "Qoniqarli",
	BandPoor:         "Qoniqarsiz",
	BandFail:         "Yomon",
}

// Label returns the display label for the band, or the raw band value
// for unknown bands.
func (b GradeBand) Label() string {
	if l, ok := bandLabels[b]; ok {
		return l
	}
	return string(b)
}

// BandFor maps a percentage to its grade band. Thresholds are inclusive
// lower bounds evaluated top-down.
func BandFor(percentage float64) GradeBand {
	switch {
	case percentage >= 90:
		return BandExcellent
	case percentage >= 80:
		return BandGood
	case percentage >= 70:
		return BandSatisfactory
	case percentage >= 60:
		return BandPoor
	default:
		return BandFail
	}
}

// GradedResult is the immutable outcome of grading one recognized answer
// sheet against one test. Persistence is the caller's concern.
type GradedResult struct {
	ID             string       `json:"id"`
	TestID         string       `json:"test_id"`
	StudentName    string       `json:"student_name"`
	StudentClass   string       `json:"student_class,omitempty"`
	TotalQuestions int          `json:"total_questions"`
	CorrectAnswers int          `json:"correct_answers"`
	WrongAnswers   int          `json:"wrong_answers"`
	Score          int          `json:"score"`
	Percentage     float64      `json:"percentage"`
	GradeBand      GradeBand    `json:"grade_band"`
	Source         AnswerSource `json:"source,omitempty"`
	ProcessedAt    time.Time    `json:"processed_at"`
}

// Feedback is advisory commentary on a graded result. It has no effect on
// the grade itself.
type Feedback struct {
	OverallFeedback string   `json:"overall_feedback"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}
