// Package pipeline chains text extraction, answer analysis and grading
// for one answer-sheet image.
package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Mirzabek3555/Ustoziya-new/internal/grading"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// ErrNoText is returned when no backend could pull any text out of the
// image. Unlike per-backend failures this is fatal and user-visible.
var ErrNoText = eris.New("pipeline: no text could be extracted from the image")

// TextExtractor recognizes raw text from an image file.
type TextExtractor interface {
	Extract(ctx context.Context, imagePath string) (model.RecognitionResult, error)
}

// AnswerAnalyzer turns recognized text into structured answers. It never
// fails; it degrades internally instead.
type AnswerAnalyzer interface {
	Analyze(ctx context.Context, raw string, test *model.Test) model.ExtractedAnswers
}

// Pipeline runs the extract → analyze → grade chain. One invocation is
// synchronous and owns no shared mutable state, so instances are safe
// for concurrent use.
type Pipeline struct {
	extractor TextExtractor
	analyzer  AnswerAnalyzer
	engine    *grading.Engine
}

// New builds a pipeline.
func New(extractor TextExtractor, analyzer AnswerAnalyzer) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		analyzer:  analyzer,
		engine:    grading.NewEngine(),
	}
}

// Run processes one answer-sheet image against a test and returns the
// graded result. studentClass is carried through to the result for
// export and persistence.
func (p *Pipeline) Run(ctx context.Context, imagePath, studentClass string, test *model.Test) (*model.GradedResult, error) {
	recognized, err := p.extractor.Extract(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	if recognized.Backend == model.BackendUnavailable || recognized.Text == "" {
		return nil, ErrNoText
	}

	extracted := p.analyzer.Analyze(ctx, recognized.Text, test)
	extracted.StudentName = p.normalizeName(extracted.StudentName)

	result := p.engine.Grade(test, extracted)
	result.StudentClass = studentClass

	zap.L().Info("pipeline: sheet graded",
		zap.String("test_id", test.ID),
		zap.String("student", result.StudentName),
		zap.String("class", studentClass),
		zap.String("recognition_backend", string(recognized.Backend)),
		zap.String("answer_source", string(result.Source)),
		zap.Float64("percentage", result.Percentage))

	return result, nil
}

// normalizeName collapses whitespace and title-cases the student name.
// This runs after analysis so the raw parser output stays untouched.
// The caser is built per call; cases.Caser carries internal state and
// must not be shared across goroutines.
func (p *Pipeline) normalizeName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return cases.Title(language.Und).String(strings.Join(fields, " "))
}
