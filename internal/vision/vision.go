// Package vision recognizes text from answer-sheet images through an
// ordered waterfall of recognition backends.
package vision

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// Backend recognizes text from a single image file.
type Backend interface {
	Name() string
	Kind() model.RecognitionBackend
	Recognize(ctx context.Context, imagePath string) (model.RecognitionResult, error)
}

// Step pairs a backend with its acceptance threshold. A result is
// accepted when its confidence strictly exceeds the threshold; a
// negative threshold accepts any result.
type Step struct {
	Backend   Backend
	Threshold float64
}

// Extractor tries backends in priority order and returns the first
// accepted result.
type Extractor struct {
	steps []Step
}

// NewExtractor builds an extractor over an ordered list of steps.
func NewExtractor(steps ...Step) *Extractor {
	return &Extractor{steps: steps}
}

// NewExtractorFromConfig assembles the waterfall from configuration.
// Cloud backends are only included when their credentials are set; the
// local OCR step is always last and has no threshold. Cloud calls share
// one rate limiter.
func NewExtractorFromConfig(cfg config.VisionConfig) *Extractor {
	var limiter *rate.Limiter
	if cfg.CloudRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.CloudRPS), 1)
	}

	var steps []Step
	if cfg.Gemini.Key != "" {
		steps = append(steps, Step{
			Backend:   NewGemini(cfg.Gemini, limiter),
			Threshold: cfg.Gemini.Threshold,
		})
	}
	if cfg.GoogleVision.Key != "" {
		steps = append(steps, Step{
			Backend:   NewGoogleVision(cfg.GoogleVision, limiter),
			Threshold: cfg.GoogleVision.Threshold,
		})
	}
	if cfg.Yandex.Key != "" {
		steps = append(steps, Step{
			Backend:   NewYandex(cfg.Yandex, limiter),
			Threshold: cfg.Yandex.Threshold,
		})
	}
	steps = append(steps, Step{
		Backend:   NewTesseract(cfg.Tesseract),
		Threshold: -1,
	})

	return &Extractor{steps: steps}
}

// Extract runs the waterfall over the image. It fails only when the
// image file itself is unreadable; backend failures and low-confidence
// results advance to the next step. When every step is exhausted the
// returned result carries BackendUnavailable.
func (e *Extractor) Extract(ctx context.Context, imagePath string) (model.RecognitionResult, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return model.RecognitionResult{}, eris.Wrapf(err, "vision: open image %s", imagePath)
	}
	_ = f.Close()

	for _, step := range e.steps {
		result, err := step.Backend.Recognize(ctx, imagePath)
		if err != nil {
			zap.L().Warn("vision: backend failed, trying next",
				zap.String("backend", step.Backend.Name()),
				zap.Error(err))
			continue
		}
		if step.Threshold >= 0 && result.Confidence <= step.Threshold {
			zap.L().Warn("vision: confidence below threshold, trying next",
				zap.String("backend", step.Backend.Name()),
				zap.Float64("confidence", result.Confidence),
				zap.Float64("threshold", step.Threshold))
			continue
		}
		zap.L().Info("vision: text recognized",
			zap.String("backend", step.Backend.Name()),
			zap.Float64("confidence", result.Confidence),
			zap.Int("text_len", len(result.Text)))
		return result, nil
	}

	zap.L().Warn("vision: all backends exhausted", zap.String("image", imagePath))
	return model.RecognitionResult{Backend: model.BackendUnavailable}, nil
}
