// Package tts synthesizes narration audio through the ElevenLabs API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"clipforge/internal/retry"
	"clipforge/internal/storage"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultTimeout = 2 * time.Minute
)

// Client calls the ElevenLabs text-to-speech endpoint. All requests pass
// through the shared rate limiter, so concurrent batch workers cannot
// exceed the API's request rate.
type Client struct {
	// APIKey is the xi-api-key credential.
	APIKey string
	// VoiceID selects the narration voice.
	VoiceID string
	// ModelID selects the synthesis model.
	ModelID string
	// Stability and Similarity are voice tuning knobs in [0,1].
	Stability  float64
	Similarity float64

	// BaseURL overrides the API host, used by tests.
	BaseURL string
	// HTTPClient overrides the default client (2 minute timeout).
	HTTPClient *http.Client
	// Limiter caps outbound request rate. Nil disables limiting.
	Limiter *rate.Limiter
	// RetryConfig holds retry behavior configuration.
	RetryConfig *retry.Config
}

// NewClient creates a client with defaults for the given credentials.
func NewClient(apiKey, voiceID, modelID string) *Client {
	cfg := retry.DefaultConfig()
	return &Client{
		APIKey:      apiKey,
		VoiceID:     voiceID,
		ModelID:     modelID,
		Stability:   0.5,
		Similarity:  0.75,
		Limiter:     rate.NewLimiter(rate.Limit(2.0), 4),
		RetryConfig: &cfg,
	}
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize generates narration audio for text and writes it atomically
// to outputPath. Retries transient failures; a rejected credential is
// permanent and returned immediately.
func (c *Client) Synthesize(ctx context.Context, text, outputPath string) error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: tts api key not configured", retry.ErrUnauthorized)
	}

	cfg := c.RetryConfig
	if cfg == nil {
		defaultCfg := retry.DefaultConfig()
		cfg = &defaultCfg
	}

	return retry.Do(ctx, *cfg, retry.IsRetryable, func(ctx context.Context) error {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return c.synthesizeOnce(ctx, text, outputPath)
	})
}

func (c *Client) synthesizeOnce(ctx context.Context, text, outputPath string) error {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.Stability,
			SimilarityBoost: c.Similarity,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL(), c.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to write
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: tts api returned %d", retry.ErrUnauthorized, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("tts api returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	writer, err := storage.NewAtomicWriter(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := io.Copy(writer, resp.Body); err != nil {
		writer.Abort()
		return fmt.Errorf("write audio: %w", err)
	}
	return writer.Commit()
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}
