package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// stubBackend returns a fixed result or error and records invocations.
type stubBackend struct {
	name   string
	kind   model.RecognitionBackend
	result model.RecognitionResult
	err    error
	calls  int
}

func (s *stubBackend) Name() string                   { return s.name }
func (s *stubBackend) Kind() model.RecognitionBackend { return s.kind }

func (s *stubBackend) Recognize(context.Context, string) (model.RecognitionResult, error) {
	s.calls++
	return s.result, s.err
}

func okBackend(name string, kind model.RecognitionBackend, conf float64) *stubBackend {
	return &stubBackend{
		name: name,
		kind: kind,
		result: model.RecognitionResult{
			Text:       "Ism: Ali\n1. A",
			Confidence: conf,
			Backend:    kind,
		},
	}
}

func tempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not a real jpeg"), 0o644))
	return path
}

func TestExtract_FirstAcceptedWins(t *testing.T) {
	primary := okBackend("primary", model.BackendPrimaryVision, 0.85)
	secondary := okBackend("secondary", model.BackendSecondaryVision, 0.95)
	e := NewExtractor(
		Step{Backend: primary, Threshold: 0.80},
		Step{Backend: secondary, Threshold: 0.70},
	)

	got, err := e.Extract(context.Background(), tempImage(t))
	require.NoError(t, err)

	assert.Equal(t, model.BackendPrimaryVision, got.Backend)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, secondary.calls, "later backends must not be invoked once a result is accepted")
}

func TestExtract_ThresholdIsStrict(t *testing.T) {
	// Confidence exactly at the threshold is not enough.
	primary := okBackend("primary", model.BackendPrimaryVision, 0.80)
	secondary := okBackend("secondary", model.BackendSecondaryVision, 0.75)
	e := NewExtractor(
		Step{Backend: primary, Threshold: 0.80},
		Step{Backend: secondary, Threshold: 0.70},
	)

	got, err := e.Extract(context.Background(), tempImage(t))
	require.NoError(t, err)

	assert.Equal(t, model.BackendSecondaryVision, got.Backend)
	assert.Equal(t, 1, primary.calls)
}

func TestExtract_BackendErrorAdvances(t *testing.T) {
	failing := &stubBackend{name: "primary", kind: model.BackendPrimaryVision, err: errors.New("credentials")}
	local := okBackend("local", model.BackendLocalOCR, 0.3)
	e := NewExtractor(
		Step{Backend: failing, Threshold: 0.80},
		Step{Backend: local, Threshold: -1},
	)

	got, err := e.Extract(context.Background(), tempImage(t))
	require.NoError(t, err)

	// The local step has no threshold, so even a weak result is final.
	assert.Equal(t, model.BackendLocalOCR, got.Backend)
	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
}

func TestExtract_AllExhaustedReturnsUnavailable(t *testing.T) {
	a := &stubBackend{name: "primary", kind: model.BackendPrimaryVision, err: errors.New("down")}
	b := &stubBackend{name: "secondary", kind: model.BackendSecondaryVision, err: errors.New("down")}
	e := NewExtractor(
		Step{Backend: a, Threshold: 0.80},
		Step{Backend: b, Threshold: 0.70},
	)

	got, err := e.Extract(context.Background(), tempImage(t))
	require.NoError(t, err)

	assert.Equal(t, model.BackendUnavailable, got.Backend)
	assert.Empty(t, got.Text)
	assert.Zero(t, got.Confidence)
}

func TestExtract_UnreadableImageFails(t *testing.T) {
	e := NewExtractor(Step{Backend: okBackend("primary", model.BackendPrimaryVision, 0.9), Threshold: 0.80})

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))

	assert.Error(t, err)
}

func TestNewExtractorFromConfig_SkipsUnconfiguredBackends(t *testing.T) {
	cfg := config.VisionConfig{
		GoogleVision: config.GoogleVisionConfig{Key: "k", Threshold: 0.70},
		Tesseract:    config.TesseractConfig{Languages: "uzb+eng"},
	}

	e := NewExtractorFromConfig(cfg)

	require.Len(t, e.steps, 2)
	assert.Equal(t, model.BackendSecondaryVision, e.steps[0].Backend.Kind())
	assert.Equal(t, model.BackendLocalOCR, e.steps[1].Backend.Kind())
	assert.Negative(t, e.steps[1].Threshold)
}

func TestNewExtractorFromConfig_FullWaterfallOrder(t *testing.T) {
	cfg := config.VisionConfig{
		Gemini:       config.GeminiConfig{Key: "k", Model: "gemini-2.0-flash", Threshold: 0.80},
		GoogleVision: config.GoogleVisionConfig{Key: "k", Threshold: 0.70},
		Yandex:       config.YandexConfig{Key: "k", Threshold: 0.70, PollCount: 10, PollIntervalSecs: 1},
		Tesseract:    config.TesseractConfig{Languages: "uzb+eng"},
		CloudRPS:     5,
	}

	e := NewExtractorFromConfig(cfg)

	require.Len(t, e.steps, 4)
	kinds := []model.RecognitionBackend{
		e.steps[0].Backend.Kind(),
		e.steps[1].Backend.Kind(),
		e.steps[2].Backend.Kind(),
		e.steps[3].Backend.Kind(),
	}
	assert.Equal(t, []model.RecognitionBackend{
		model.BackendPrimaryVision,
		model.BackendSecondaryVision,
		model.BackendRegionalVision,
		model.BackendLocalOCR,
	}, kinds)
}
