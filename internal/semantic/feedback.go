package semantic

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
	"github.com/Mirzabek3555/Ustoziya-new/pkg/anthropic"
)

const feedbackPrompt = `A student scored %d/%d (%.1f%%) on the test "%s".

Write short, encouraging feedback for the student in Uzbek.
Return ONLY a valid JSON object in this exact shape:
{"overall_feedback": "<2-3 sentences>", "strengths": ["..."], "weaknesses": ["..."], "recommendations": ["..."]}`

// Feedback produces advisory feedback for a graded result. It never
// fails: a missing backend or any request/parse failure falls back to a
// deterministic template keyed by percentage band.
func (a *Analyzer) Feedback(ctx context.Context, result *model.GradedResult, testTitle string) model.Feedback {
	if a.client == nil {
		return templateFeedback(result.Percentage)
	}

	prompt := fmt.Sprintf(feedbackPrompt,
		result.Score, result.TotalQuestions, result.Percentage, testTitle)

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
		zap.L().Warn("semantic: feedback request failed, using template", zap.Error(err))
		return templateFeedback(result.Percentage)
	}
	resp.Usage.LogCost(a.cfg.Model, "feedback")

	var fb model.Feedback
	if err := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &fb); err != nil {
		zap.L().Warn("semantic: malformed feedback response, using template", zap.Error(err))
		return templateFeedback(result.Percentage)
	}
	if fb.OverallFeedback == "" {
		return templateFeedback(result.Percentage)
	}
	return fb
}

// templateFeedback returns canned feedback keyed by percentage band.
func templateFeedback(percentage float64) model.Feedback {
	switch {
	case percentage >= 90:
		return model.Feedback{
			OverallFeedback: "Ajoyib natija! Siz mavzuni juda yaxshi o'zlashtirgansiz.",
			Strengths:       []string{"Mavzu bo'yicha chuqur bilim", "Savollarga aniq javob berish"},
			Recommendations: []string{"Shu darajani saqlab qoling", "Qo'shimcha murakkab masalalar bilan shug'ullaning"},
		}
	case percentage >= 70:
		return model.Feedback{
			OverallFeedback: "Yaxshi natija! Biroz ko'proq mashq qilsangiz, a'lo darajaga chiqasiz.",
			Strengths:       []string{"Asosiy tushunchalarni bilish"},
			Weaknesses:      []string{"Ba'zi mavzularda noaniqlik"},
			Recommendations: []string{"Xato qilingan savollar mavzusini takrorlang"},
		}
	default:
		return model.Feedback{
			OverallFeedback: "Natija qoniqarsiz. Mavzuni qaytadan o'rganib chiqish tavsiya etiladi.",
			Weaknesses:      []string{"Asosiy tushunchalarda kamchiliklar"},
			Recommendations: []string{"Darslikni qayta o'qing", "O'qituvchidan qo'shimcha yordam so'rang", "Mashq testlarini yeching"},
		}
	}
}
