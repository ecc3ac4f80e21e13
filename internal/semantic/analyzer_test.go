package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mirzabek3555/Ustoziya-new/internal/answers"
	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
	"github.com/Mirzabek3555/Ustoziya-new/pkg/anthropic"
)

// mockClient returns a fixed response or error for every CreateMessage.
type mockClient struct {
	resp    *anthropic.MessageResponse
	err     error
	lastReq anthropic.MessageRequest
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func semCfg() config.SemanticConfig {
	return config.SemanticConfig{
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   1024,
		Temperature: 0.1,
	}
}

func sampleTest() *model.Test {
	return &model.Test{
		ID:    "t1",
		Title: "Matematika",
		Questions: []model.Question{
			{Order: 1, Text: "2+2=?", AnswerOptions: []model.Answer{
				{Text: "A", IsCorrect: false},
				{Text: "B", IsCorrect: true},
			}},
		},
	}
}

func TestAnalyze_Semantic(t *testing.T) {
	client := &mockClient{resp: textResponse(
		`{"student_name": "Dilnoza Karimova", "answers": {"1": "b", "2": "C"}, "confidence": 0.95}`,
	)}
	a := NewAnalyzer(client, semCfg())

	got := a.Analyze(context.Background(), "Ism: Dilnoza\n1. B", sampleTest())

	assert.Equal(t, model.SourceSemantic, got.Source)
	assert.Equal(t, "Dilnoza Karimova", got.StudentName)
	assert.Equal(t, map[int]string{1: "B", 2: "C"}, got.Answers)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

func TestAnalyze_StripsCodeFences(t *testing.T) {
	client := &mockClient{resp: textResponse(
		"```json\n{\"student_name\": \"Ali\", \"answers\": {\"1\": \"A\"}, \"confidence\": 0.9}\n```",
	)}
	a := NewAnalyzer(client, semCfg())

	got := a.Analyze(context.Background(), "1. A", sampleTest())

	assert.Equal(t, model.SourceSemantic, got.Source)
	assert.Equal(t, map[int]string{1: "A"}, got.Answers)
}

func TestAnalyze_MalformedResponseFallsBack(t *testing.T) {
	client := &mockClient{resp: textResponse("sorry, I cannot help with that")}
	a := NewAnalyzer(client, semCfg())

	got := a.Analyze(context.Background(), "Ism: Alisher\n1. A", sampleTest())

	assert.Equal(t, model.SourceFallbackRegex, got.Source)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
	assert.Equal(t, "Alisher", got.StudentName)
}

func TestAnalyze_ErrorFallsBack(t *testing.T) {
	client := &mockClient{err: errors.New("api: overloaded")}
	a := NewAnalyzer(client, semCfg())

	got := a.Analyze(context.Background(), "1. A\n2) B", sampleTest())

	assert.Equal(t, model.SourceFallbackRegex, got.Source)
	assert.Equal(t, map[int]string{1: "A", 2: "B"}, got.Answers)
}

func TestAnalyze_NoClientMatchesParser(t *testing.T) {
	a := NewAnalyzer(nil, semCfg())
	text := "Ism: Alisher Navoiy\nSavol 1: A\n2) b\n2 - C"

	got := a.Analyze(context.Background(), text, sampleTest())
	want := answers.NewParser().Parse(text)

	assert.Equal(t, want, got)
	assert.Equal(t, model.SourceFallbackRegex, got.Source)
}

func TestAnalyze_PromptIsBounded(t *testing.T) {
	client := &mockClient{resp: textResponse(`{"student_name": "A", "answers": {"1": "A"}, "confidence": 1}`)}
	a := NewAnalyzer(client, semCfg())

	long := make([]byte, 0, 10_000)
	for i := 0; i < 10_000; i++ {
		long = append(long, 'x')
	}
	a.Analyze(context.Background(), string(long), sampleTest())

	require.Len(t, client.lastReq.Messages, 1)
	assert.Less(t, len(client.lastReq.Messages[0].Content), 2000)
	assert.Equal(t, "claude-haiku-4-5-20251001", client.lastReq.Model)
	assert.Equal(t, int64(1024), client.lastReq.MaxTokens)
	require.NotNil(t, client.lastReq.Temperature)
	assert.InDelta(t, 0.1, *client.lastReq.Temperature, 1e-9)
}

func TestAnalyze_SetsSystemPrompt(t *testing.T) {
	client := &mockClient{resp: textResponse(`{"student_name": "A", "answers": {"1": "A"}, "confidence": 1}`)}
	a := NewAnalyzer(client, semCfg())

	a.Analyze(context.Background(), "Ism: A\n1. A", sampleTest())

	require.Len(t, client.lastReq.System, 1)
	assert.Contains(t, client.lastReq.System[0].Text, "ONLY a valid JSON object")
}

func TestFeedback_SetsSystemPrompt(t *testing.T) {
	client := &mockClient{resp: textResponse(`{"overall_feedback": "Barakalla!"}`)}
	a := NewAnalyzer(client, semCfg())

	a.Feedback(context.Background(), &model.GradedResult{Score: 9, TotalQuestions: 10, Percentage: 90}, "Matematika")

	require.Len(t, client.lastReq.System, 1)
	assert.Contains(t, client.lastReq.System[0].Text, "ONLY a valid JSON object")
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", "Here you go: {\"a\":1} done", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanJSON(tc.in))
		})
	}
}

func TestFormatQuestions_MarksCorrect(t *testing.T) {
	out := formatQuestions(sampleTest())

	assert.Contains(t, out, "1. 2+2=?")
	assert.Contains(t, out, "B *")
	assert.NotContains(t, out, "A *")
}
