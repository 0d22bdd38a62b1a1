// Package texttoimage calls a hosted diffusion model over HTTP and rotates
// through a pool of API keys when the provider throttles or rejects one.
package texttoimage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/creaza/ai-service/internal/config"
	"github.com/creaza/ai-service/internal/types"
	"github.com/creaza/ai-service/pkg/keypool"

	"go.uber.org/zap"
)

const (
	DefaultWidth         = 512
	DefaultHeight        = 512
	DefaultSteps         = 50
	DefaultGuidanceScale = 12.0

	requestTimeout = 120 * time.Second
)

type generatePayload struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

type Client struct {
	http    *http.Client
	keys    *keypool.Pool
	baseURL string
	model   string
	logger  *zap.Logger
}

func NewClient(cfg config.HuggingFaceConfig, logger *zap.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		keys:    keypool.New(cfg.APIKeys),
		baseURL: strings.TrimRight(cfg.BaseUrl, "/"),
		model:   cfg.Model,
		logger:  logger.Named("texttoimage"),
	}
}

// Generate renders a prompt into a PNG and returns the raw image bytes.
// Each configured key gets at most one attempt per request. Throttled,
// overloaded or rejected keys rotate the pool forward; any other upstream
// failure is terminal.
func (c *Client) Generate(ctx context.Context, req types.TextToImageRequest) ([]byte, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, types.NewError(types.ErrInvalidInput, "prompt must not be empty")
	}
	if c.keys.Len() == 0 {
		return nil, types.NewError(types.ErrUnavailable, "no api keys configured for image generation")
	}

	payload := generatePayload{
		Inputs: req.Prompt,
		Parameters: generateParameters{
			Width:             valueOr(req.Width, DefaultWidth),
			Height:            valueOr(req.Height, DefaultHeight),
			NumInferenceSteps: valueOr(req.NumInferenceSteps, DefaultSteps),
			GuidanceScale:     floatOr(req.GuidanceScale, DefaultGuidanceScale),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to encode generation request").WithCause(err)
	}

	var lastErr error
	for attempt := 0; attempt < c.keys.Len(); attempt++ {
		image, retry, err := c.attempt(ctx, body)
		if err == nil {
			return image, nil
		}
		if !retry {
			return nil, err
		}

		lastErr = err
		c.logger.Warn("rotating to next api key",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		c.keys.Advance()
	}

	return nil, types.NewError(types.ErrUpstream, "all api keys exhausted").WithCause(lastErr)
}

// attempt performs one request with the pool's current key. The retry flag
// tells the caller whether rotating to the next key makes sense.
func (c *Client) attempt(ctx context.Context, body []byte) ([]byte, bool, error) {
	url := c.baseURL + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, types.NewError(types.ErrInternal, "failed to build generation request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.keys.Current())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, types.NewError(types.ErrUpstream, "image generation request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, types.NewError(types.ErrUpstream, "failed to read generated image").WithCause(err)
		}
		return data, false, nil
	}

	perr := types.Errorf(types.ErrUpstream, "image generation returned status %d", resp.StatusCode)
	return nil, retryableStatus(resp.StatusCode), perr
}

// retryableStatus covers throttling, temporary overload and a rejected key.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusUnauthorized:
		return true
	}
	return false
}

func valueOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func floatOr(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
