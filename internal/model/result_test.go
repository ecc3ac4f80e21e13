package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandFor_Boundaries(t *testing.T) {
	assert.Equal(t, BandExcellent, BandFor(100))
	assert.Equal(t, BandExcellent, BandFor(90.0))
	assert.Equal(t, BandGood, BandFor(89.9))
	assert.Equal(t, BandGood, BandFor(80.0))
	assert.Equal(t, BandSatisfactory, BandFor(79.9))
	assert.Equal(t, BandSatisfactory, BandFor(70.0))
	assert.Equal(t, BandPoor, BandFor(69.9))
	assert.Equal(t, BandPoor, BandFor(60.0))
	assert.Equal(t, BandFail, BandFor(59.9))
	assert.Equal(t, BandFail, BandFor(0))
}

func TestGradeBand_Label(t *testing.T) {
	assert.Equal(t, "A'lo", BandExcellent.Label())
	assert.Equal(t, "Yaxshi", BandGood.Label())
	assert.Equal(t, "Qoniqarli", BandSatisfactory.Label())
	assert.Equal(t, "Qoniqarsiz", BandPoor.Label())
	assert.Equal(t, "Yomon", BandFail.Label())
	assert.Equal(t, "WEIRD", GradeBand("WEIRD").Label())
}

func TestQuestion_CorrectAnswer(t *testing.T) {
	q := Question{
		Order: 1,
		AnswerOptions: []Answer{
			{Text: "A"},
			{Text: "B", IsCorrect: true},
			{Text: "C", IsCorrect: true},
		},
	}
	ca := q.CorrectAnswer()
	assert.NotNil(t, ca)
	assert.Equal(t, "B", ca.Text, "first correct option is canonical")

	assert.Nil(t, Question{Order: 2, AnswerOptions: []Answer{{Text: "A"}}}.CorrectAnswer())
	assert.Nil(t, Question{Order: 3}.CorrectAnswer())
}
