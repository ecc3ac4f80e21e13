package vision

import (
	"context"
	"encoding/json"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

const geminiPrompt = `Transcribe ALL text visible in this image of a student's answer sheet.
Preserve line breaks and the original order. Do not correct, translate or
interpret the text. Estimate how reliable your transcription is.
Return ONLY a valid JSON object: {"text": "<transcription>", "confidence": <0.0-1.0>}`

// Gemini is the primary recognition backend, a multimodal model asked
// to transcribe the image and self-report confidence.
type Gemini struct {
	cfg     config.GeminiConfig
	limiter *rate.Limiter
}

// NewGemini builds the primary vision backend. limiter may be nil.
func NewGemini(cfg config.GeminiConfig, limiter *rate.Limiter) *Gemini {
	return &Gemini{cfg: cfg, limiter: limiter}
}

func (g *Gemini) Name() string                   { return "gemini" }
func (g *Gemini) Kind() model.RecognitionBackend { return model.BackendPrimaryVision }

type geminiTranscription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (g *Gemini) Recognize(ctx context.Context, imagePath string) (model.RecognitionResult, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return model.RecognitionResult{}, eris.Wrap(err, "gemini: rate limit wait")
		}
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return model.RecognitionResult{}, eris.Wrapf(err, "gemini: read image %s", imagePath)
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.cfg.Key))
	if err != nil {
		return model.RecognitionResult{}, eris.Wrap(err, "gemini: create client")
	}
	defer cl.Close() //nolint:errcheck

	m := cl.GenerativeModel(g.cfg.Model)
	temp := float32(0)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(geminiPrompt),
		&genai.Blob{MIMEType: imageMIME(imagePath), Data: data},
	)
	if err != nil {
		return model.RecognitionResult{}, eris.Wrap(err, "gemini: generate content")
	}

	txt := firstText(resp)
	if txt == "" {
		return model.RecognitionResult{}, eris.New("gemini: empty response")
	}

	var out geminiTranscription
	if err := json.Unmarshal([]byte(scrapeJSON(txt)), &out); err != nil {
		return model.RecognitionResult{}, eris.Wrap(err, "gemini: bad JSON in response")
	}

	return model.RecognitionResult{
		Text:       strings.TrimSpace(out.Text),
		Confidence: out.Confidence,
		Backend:    model.BackendPrimaryVision,
	}, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

// imageMIME guesses the MIME type from the file extension, defaulting
// to JPEG which the backends tolerate for most camera uploads.
func imageMIME(path string) string {
	if typ := mime.TypeByExtension(filepath.Ext(path)); strings.HasPrefix(typ, "image/") {
		return typ
	}
	return "image/jpeg"
}

// scrapeJSON pulls the first {...} object out of possibly fenced or
// prose-wrapped model output.
func scrapeJSON(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
