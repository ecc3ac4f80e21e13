package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

const (
	yandexSubmitPath = "/ocr/v1/recognizeTextAsync"
	yandexPollPath   = "/ocr/v1/getRecognition"
)

// Yandex is the regional recognition backend. Recognition is
// asynchronous: the image is submitted, then the operation is polled a
// bounded number of times for completion.
type Yandex struct {
	cfg     config.YandexConfig
	limiter *rate.Limiter
	client  *http.Client
}

// NewYandex builds the regional vision backend. limiter may be nil.
func NewYandex(cfg config.YandexConfig, limiter *rate.Limiter) *Yandex {
	return &Yandex{
		cfg:     cfg,
		limiter: limiter,
		client:  &http.Client{},
	}
}

func (y *Yandex) Name() string                   { return "yandex" }
func (y *Yandex) Kind() model.RecognitionBackend { return model.BackendRegionalVision }

type yandexSubmitRequest struct {
	MimeType      string   `json:"mimeType"`
	LanguageCodes []string `json:"languageCodes"`
	Content       string   `json:"content"`
}

type yandexSubmitResponse struct {
	ID string `json:"id"`
}

type yandexPollResponse struct {
	Done   bool `json:"done"`
	Result struct {
		TextAnnotation struct {
			FullText   string  `json:"fullText"`
			Confidence float64 `json:"confidence"`
		} `json:"textAnnotation"`
	} `json:"result"`
}

func (y *Yandex) Recognize(ctx context.Context, imagePath string) (model.RecognitionResult, error) {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return model.RecognitionResult{}, eris.Wrap(err, "yandex: rate limit wait")
		}
	}

	opID, err := y.submit(ctx, imagePath)
	if err != nil {
		return model.RecognitionResult{}, err
	}

	interval := time.Duration(y.cfg.PollIntervalSecs) * time.Second
	for i := 0; i < y.cfg.PollCount; i++ {
		select {
		case <-ctx.Done():
			return model.RecognitionResult{}, eris.Wrap(ctx.Err(), "yandex: poll canceled")
		case <-time.After(interval):
		}

		poll, err := y.poll(ctx, opID)
		if err != nil {
			return model.RecognitionResult{}, err
		}
		if !poll.Done {
			continue
		}

		text := strings.TrimSpace(poll.Result.TextAnnotation.FullText)
		if text == "" {
			return model.RecognitionResult{}, eris.New("yandex: operation finished with no text")
		}
		return model.RecognitionResult{
			Text:       text,
			Confidence: poll.Result.TextAnnotation.Confidence,
			Backend:    model.BackendRegionalVision,
		}, nil
	}

	return model.RecognitionResult{}, eris.Errorf("yandex: operation %s not done after %d polls", opID, y.cfg.PollCount)
}

func (y *Yandex) submit(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", eris.Wrapf(err, "yandex: read image %s", imagePath)
	}

	body, err := json.Marshal(yandexSubmitRequest{
		MimeType:      imageMIME(imagePath),
		LanguageCodes: []string{"uz", "ru", "en"},
		Content:       base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return "", eris.Wrap(err, "yandex: marshal submit request")
	}

	respBody, err := y.do(ctx, http.MethodPost, y.cfg.BaseURL+yandexSubmitPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var submit yandexSubmitResponse
	if err := json.Unmarshal(respBody, &submit); err != nil {
		return "", eris.Wrap(err, "yandex: unmarshal submit response")
	}
	if submit.ID == "" {
		return "", eris.New("yandex: submit returned no operation id")
	}
	return submit.ID, nil
}

func (y *Yandex) poll(ctx context.Context, opID string) (*yandexPollResponse, error) {
	u := y.cfg.BaseURL + yandexPollPath + "?operationId=" + url.QueryEscape(opID)
	respBody, err := y.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var poll yandexPollResponse
	if err := json.Unmarshal(respBody, &poll); err != nil {
		return nil, eris.Wrap(err, "yandex: unmarshal poll response")
	}
	return &poll, nil
}

func (y *Yandex) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, eris.Wrap(err, "yandex: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Api-Key "+y.cfg.Key)
	if y.cfg.FolderID != "" {
		req.Header.Set("x-folder-id", y.cfg.FolderID)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "yandex: API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "yandex: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("yandex: API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
