package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mediscribe/mediscribe_backend/config"
)

func testConfig(baseURL string) config.ElevenLabsConfig {
	return config.ElevenLabsConfig{
		APIKey:          "xi-key",
		BaseURL:         baseURL,
		VoiceID:         "voice123",
		ModelID:         "eleven_multilingual_v2",
		OutputFormat:    "mp3_44100_128",
		Stability:       0.5,
		SimilarityBoost: 0.75,
		SpeakerBoost:    true,
		TimeoutSeconds:  5,
	}
}

func TestTextToSpeech(t *testing.T) {
	var got ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("output_format") != "mp3_44100_128" {
			t.Errorf("output_format = %q", r.URL.Query().Get("output_format"))
		}
		if r.Header.Get("xi-api-key") != "xi-key" {
			t.Errorf("xi-api-key = %q", r.Header.Get("xi-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	audio, err := New(testConfig(srv.URL)).TextToSpeech(context.Background(), "جی، سنیے")
	if err != nil {
		t.Fatalf("TextToSpeech() error = %v", err)
	}
	if string(audio) != "ID3audio" {
		t.Errorf("audio = %q", audio)
	}
	if got.Text != "جی، سنیے" || got.ModelID != "eleven_multilingual_v2" {
		t.Errorf("request = %+v", got)
	}
	if got.VoiceSettings.Stability != 0.5 || got.VoiceSettings.SimilarityBoost != 0.75 || !got.VoiceSettings.UseSpeakerBoost {
		t.Errorf("voice settings = %+v", got.VoiceSettings)
	}
}

func TestTextToSpeech_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":{"status":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.TextToSpeech(context.Background(), "text")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("TextToSpeech() error = %v, want 401 APIError", err)
	}

	if _, err := c.TextToSpeech(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("empty text error = %v", err)
	}

	noKey := testConfig(srv.URL)
	noKey.APIKey = ""
	if _, err := New(noKey).TextToSpeech(context.Background(), "text"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("missing key error = %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/voices/voice123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"voice_id":"voice123"}`))
	}))
	defer srv.Close()

	if err := New(testConfig(srv.URL)).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
