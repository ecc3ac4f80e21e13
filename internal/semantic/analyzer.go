// Package semantic extracts answers from recognized text with a
// generative backend, falling back to rule-based parsing on any failure.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Mirzabek3555/Ustoziya-new/internal/answers"
	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
	"github.com/Mirzabek3555/Ustoziya-new/pkg/anthropic"
)

// Prompt budgets. The raw text and question listing are truncated so the
// request stays small regardless of OCR output size.
const (
	maxTextExcerpt    = 500
	maxQuestionSketch = 300
)

// systemPrompt frames every request; shared by analysis and feedback.
const systemPrompt = `You are an assistant for a school testing platform. You analyze OCR
transcriptions of students' answer sheets and write feedback for students.
Always respond with ONLY a valid JSON object: no prose, no code fences.`

const analysisPrompt = `Below is an OCR transcription of a student's answer sheet.

Answer sheet text:
%s

Test questions and options (correct answers marked with *):
%s

Extract the student's name and their chosen answer letter for each question.
Return ONLY a valid JSON object in this exact shape:
{"student_name": "<name>", "answers": {"1": "A", "2": "B"}, "confidence": <0.0-1.0>}`

// Analyzer performs semantic answer extraction. A nil client disables
// the generative path and Analyze degrades to the rule-based parser.
type Analyzer struct {
	client anthropic.Client
	cfg    config.SemanticConfig
	parser *answers.Parser
}

// NewAnalyzer builds an analyzer. client may be nil when no semantic
// backend is configured.
func NewAnalyzer(client anthropic.Client, cfg config.SemanticConfig) *Analyzer {
	return &Analyzer{
		client: client,
		cfg:    cfg,
		parser: answers.NewParser(),
	}
}

// analysisPayload is the JSON shape the backend is asked to produce.
type analysisPayload struct {
	StudentName string            `json:"student_name"`
	Answers     map[string]string `json:"answers"`
	Confidence  float64           `json:"confidence"`
	Notes       string            `json:"notes"`
}

// Analyze extracts a student name and answers from raw text. It never
// fails: a missing backend, a request error, or an unusable response all
// degrade to the rule-based parser.
func (a *Analyzer) Analyze(ctx context.Context, raw string, test *model.Test) model.ExtractedAnswers {
	if a.client == nil {
		return a.parser.Parse(raw)
	}

	prompt := fmt.Sprintf(analysisPrompt,
		truncate(raw, maxTextExcerpt),
		truncate(formatQuestions(test), maxQuestionSketch))

	temp := a.cfg.Temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: &temp,
		System:      []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		zap.L().Warn("semantic: analysis request failed, using rule-based parser", zap.Error(err))
		return a.parser.Parse(raw)
	}
	resp.Usage.LogCost(a.cfg.Model, "answer-analysis")

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &payload); err != nil {
		zap.L().Warn("semantic: malformed response, using rule-based parser", zap.Error(err))
		return a.parser.Parse(raw)
	}

	parsed := make(map[int]string, len(payload.Answers))
	for k, v := range payload.Answers {
		num, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		parsed[num] = strings.ToUpper(strings.TrimSpace(v))
	}
	if len(parsed) == 0 && payload.StudentName == "" {
		zap.L().Warn("semantic: response carried no usable content, using rule-based parser")
		return a.parser.Parse(raw)
	}

	return model.ExtractedAnswers{
		StudentName: payload.StudentName,
		Answers:     parsed,
		Confidence:  payload.Confidence,
		Source:      model.SourceSemantic,
		Notes:       payload.Notes,
	}
}

// formatQuestions renders questions and options one per line, marking
// the correct option with a trailing *.
func formatQuestions(test *model.Test) string {
	var b strings.Builder
	for _, q := range test.Questions {
		fmt.Fprintf(&b, "%d. %s\n", q.Order, q.Text)
		for _, opt := range q.AnswerOptions {
			mark := ""
			if opt.IsCorrect {
				mark = " *"
			}
			fmt.Fprintf(&b, "   %s%s\n", opt.Text, mark)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
