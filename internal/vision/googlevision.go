package vision

import (
	"context"
	"encoding/base64"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"

	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// The document-text API reports per-symbol confidences but not a single
// whole-page score; this default mirrors its typical print accuracy.
const googleVisionDefaultConfidence = 0.9

// GoogleVision is the secondary recognition backend, classic cloud
// document text detection.
type GoogleVision struct {
	cfg     config.GoogleVisionConfig
	limiter *rate.Limiter
}

// NewGoogleVision builds the secondary vision backend. limiter may be nil.
func NewGoogleVision(cfg config.GoogleVisionConfig, limiter *rate.Limiter) *GoogleVision {
	return &GoogleVision{cfg: cfg, limiter: limiter}
}

func (g *GoogleVision) Name() string                   { return "google-vision" }
func (g *GoogleVision) Kind() model.RecognitionBackend { return model.BackendSecondaryVision }

func (g *GoogleVision) Recognize(ctx context.Context, imagePath string) (model.RecognitionResult, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return model.RecognitionResult{}, eris.Wrap(err, "google-vision: rate limit wait")
		}
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return model.RecognitionResult{}, eris.Wrapf(err, "google-vision: read image %s", imagePath)
	}

	svc, err := visionapi.NewService(ctx, option.WithAPIKey(g.cfg.Key))
	if err != nil {
		return model.RecognitionResult{}, eris.Wrap(err, "google-vision: create service")
	}

	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{{
			Image: &visionapi.Image{Content: base64.StdEncoding.EncodeToString(data)},
			Features: []*visionapi.Feature{{
				Type: "DOCUMENT_TEXT_DETECTION",
			}},
		}},
	}

	resp, err := svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return model.RecognitionResult{}, eris.Wrap(err, "google-vision: annotate")
	}
	if len(resp.Responses) == 0 {
		return model.RecognitionResult{}, eris.New("google-vision: empty response")
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return model.RecognitionResult{}, eris.Errorf("google-vision: %s", r.Error.Message)
	}
	if r.FullTextAnnotation == nil || r.FullTextAnnotation.Text == "" {
		return model.RecognitionResult{}, eris.New("google-vision: no text detected")
	}

	return model.RecognitionResult{
		Text:       strings.TrimSpace(r.FullTextAnnotation.Text),
		Confidence: googleVisionDefaultConfidence,
		Backend:    model.BackendSecondaryVision,
	}, nil
}
