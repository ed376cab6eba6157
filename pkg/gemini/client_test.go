package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mediscribe/mediscribe_backend/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.GeminiConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/",
		Model:          "gemini-flash-latest",
		TimeoutSeconds: 5,
	})
}

func TestGenerateContent(t *testing.T) {
	var got generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/models/gemini-flash-latest:generateContent" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  hello "},{"text":"world"}]},"finishReason":"STOP"}]}`))
	})

	text, err := c.GenerateContent(context.Background(), nil, TextPart("read this"), BlobPart("image/png", []byte{0x89, 'P', 'N', 'G'}))
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}

	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 2 {
		t.Fatalf("request contents = %+v", got.Contents)
	}
	blob := got.Contents[0].Parts[1].InlineData
	if blob == nil || blob.MimeType != "image/png" || blob.Data != "iVBORw==" {
		t.Errorf("inline data = %+v", blob)
	}
}

func TestGenerateContent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "http error",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"quota"}}`,
			check: func(err error) bool {
				var apiErr *APIError
				return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
			},
		},
		{
			name:   "no candidates",
			status: http.StatusOK,
			body:   `{"candidates":[]}`,
			check:  func(err error) bool { return errors.Is(err, ErrEmptyResponse) },
		},
		{
			name:   "blank text",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"SAFETY"}]}`,
			check:  func(err error) bool { return errors.Is(err, ErrEmptyResponse) },
		},
		{
			name:   "blocked",
			status: http.StatusOK,
			body:   `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			check:  func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.GenerateContent(context.Background(), nil, TextPart("x"))
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := New(config.GeminiConfig{BaseURL: "http://127.0.0.1:0", Model: "m"})
	if _, err := c.GenerateContent(context.Background(), nil, TextPart("x")); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("GenerateContent() error = %v, want ErrMissingAPIKey", err)
	}
	if err := c.Ping(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Ping() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/models/gemini-flash-latest" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"name":"models/gemini-flash-latest"}`))
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		RawText string `json:"raw_text"`
	}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: `{"raw_text":"a"}`, want: "a"},
		{name: "json fence", in: "```json\n{\"raw_text\":\"b\"}\n```", want: "b"},
		{name: "bare fence", in: "```\n{\"raw_text\":\"c\"}\n```", want: "c"},
		{name: "prose around", in: "Here you go: {\"raw_text\":\"d\"} hope it helps", want: "d"},
		{name: "not json", in: "I could not read the image", wantErr: true},
		{name: "empty", in: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := DecodeJSON(tt.in, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.RawText != tt.want {
				t.Errorf("raw_text = %q, want %q", p.RawText, tt.want)
			}
		})
	}
}
