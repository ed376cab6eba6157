// Package gemini is a minimal client for the Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
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
	ErrMissingAPIKey = errors.New("gemini: api key is not configured")
	ErrEmptyResponse = errors.New("gemini: response contained no text")
)

const defaultTimeout = 60 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: http %d: %s", e.StatusCode, e.Body)
}

// Client calls a single configured model.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// New creates a Client from config. A missing API key is reported when a
// request is made, so the server can start without one.
func New(cfg config.GeminiConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Part is one piece of a prompt: text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// TextPart wraps a prompt string.
func TextPart(text string) Part { return Part{Text: text} }

// BlobPart base64-encodes data for inline upload.
func BlobPart(mimeType string, data []byte) Part {
	return Part{InlineData: &InlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

// GenerationConfig tunes a single request.
type GenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"response_mime_type,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// GenerateContent sends parts as a single user turn and returns the text of
// the first candidate.
func (c *Client) GenerateContent(ctx context.Context, gen *GenerationConfig, parts ...Part) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body := generateRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: gen,
	}

	var resp generateResponse
	path := "/models/" + url.PathEscape(c.model) + ":generateContent"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w (finish_reason=%s)", ErrEmptyResponse, resp.Candidates[0].FinishReason)
	}
	return text, nil
}

// Ping fetches the configured model's metadata to verify the key and model.
func (c *Client) Ping(ctx context.Context) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	var out map[string]any
	return c.do(ctx, http.MethodGet, "/models/"+url.PathEscape(c.model), nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gemini: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: do request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("gemini: read response: %w", err)
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: res.StatusCode, Body: snippet(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 200
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
