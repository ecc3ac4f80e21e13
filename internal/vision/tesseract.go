package vision

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"

	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// Tesseract is the local recognition backend. It is the waterfall's
// last step and runs against the preprocessed image, not the raw one.
type Tesseract struct {
	cfg config.TesseractConfig
}

// NewTesseract builds the local OCR backend.
func NewTesseract(cfg config.TesseractConfig) *Tesseract {
	return &Tesseract{cfg: cfg}
}

func (t *Tesseract) Name() string                   { return "tesseract" }
func (t *Tesseract) Kind() model.RecognitionBackend { return model.BackendLocalOCR }

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (model.RecognitionResult, error) {
	if err := ctx.Err(); err != nil {
		return model.RecognitionResult{}, eris.Wrap(err, "tesseract: context done")
	}

	cleaned, err := Preprocess(imagePath)
	if err != nil {
		return model.RecognitionResult{}, err
	}
	pngBytes, err := EncodePNG(cleaned)
	if err != nil {
		return model.RecognitionResult{}, err
	}

	client := gosseract.NewClient()
	defer client.Close() //nolint:errcheck

	if t.cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataDir); err != nil {
			return model.RecognitionResult{}, eris.Wrap(err, "tesseract: set tessdata dir")
		}
	}
	langs := strings.Split(t.cfg.Languages, "+")
	if err := client.SetLanguage(langs...); err != nil {
		return model.RecognitionResult{}, eris.Wrapf(err, "tesseract: set languages %s", t.cfg.Languages)
	}
	if err := client.SetImageFromBytes(pngBytes); err != nil {
		return model.RecognitionResult{}, eris.Wrap(err, "tesseract: set image")
	}

	text, err := client.Text()
	if err != nil {
		return model.RecognitionResult{}, eris.Wrap(err, "tesseract: recognize")
	}

	return model.RecognitionResult{
		Text:       strings.TrimSpace(text),
		Confidence: wordConfidence(client),
		Backend:    model.BackendLocalOCR,
	}, nil
}

// wordConfidence averages per-word confidences, scaled to [0,1]. The
// value is informational: the local step has no acceptance threshold.
func wordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return sum / float64(len(boxes)) / 100
}
