// Package elevenlabs is a minimal client for the ElevenLabs text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mediscribe/mediscribe_backend/config"
)

var (
	ErrMissingAPIKey = errors.New("elevenlabs: api key is not configured")
	ErrEmptyText     = errors.New("elevenlabs: text is empty")
)

const defaultTimeout = 120 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs: http %d: %s", e.StatusCode, e.Body)
}

// VoiceSettings mirrors the voice_settings request object.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type Client struct {
	apiKey       string
	baseURL      string
	voiceID      string
	modelID      string
	outputFormat string
	settings     VoiceSettings
	httpClient   *http.Client
}

func New(cfg config.ElevenLabsConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		voiceID:      cfg.VoiceID,
		modelID:      cfg.ModelID,
		outputFormat: cfg.OutputFormat,
		settings: VoiceSettings{
			Stability:       cfg.Stability,
			SimilarityBoost: cfg.SimilarityBoost,
			Style:           cfg.Style,
			UseSpeakerBoost: cfg.SpeakerBoost,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// TextToSpeech converts text with the configured voice and returns the
// encoded audio (mp3 for the default output format).
func (c *Client) TextToSpeech(ctx context.Context, text string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	b, err := json.Marshal(ttsRequest{Text: text, ModelID: c.modelID, VoiceSettings: c.settings})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(c.voiceID)
	if c.outputFormat != "" {
		endpoint += "?" + url.Values{"output_format": {c.outputFormat}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	return c.send(req)
}

// Ping looks up the configured voice to verify the key and voice id.
func (c *Client) Ping(ctx context.Context) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices/"+url.PathEscape(c.voiceID), nil)
	if err != nil {
		return fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	_, err = c.send(req)
	return err
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: do request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read response: %w", err)
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: res.StatusCode, Body: snippet(string(body))}
	}
	return body, nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 200
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
