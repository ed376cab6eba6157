package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/internal/schema"
	"github.com/mediscribe/mediscribe_backend/pkg/gemini"
)

type fakeGenerator struct {
	text  string
	err   error
	calls int
	parts []gemini.Part
	gen   *gemini.GenerationConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, gen *gemini.GenerationConfig, parts ...gemini.Part) (string, error) {
	f.calls++
	f.gen = gen
	f.parts = parts
	return f.text, f.err
}

func TestVision_Extract(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + `{
  "raw_text": "Paracetamol 500mg twice daily",
  "medications": [{"name": "Paracetamol", "dose": "500mg", "schedule": "twice daily", "confidence": "High"}],
  "patient_info": {"name": "Ali"},
  "special_instructions": "after meals"
}` + "\n```"}

	ext, err := NewVision(gen, nil).Extract(context.Background(), pipeline.Image{
		Name: "rx.png", MIMEType: "image/png", Data: []byte("png"),
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if ext.RawText != "Paracetamol 500mg twice daily" || ext.PatientName != "Ali" || ext.SpecialInstructions != "after meals" {
		t.Errorf("extraction = %+v", ext)
	}
	if len(ext.Medications) != 1 || ext.Medications[0].Confidence != "High" {
		t.Errorf("medications = %+v", ext.Medications)
	}

	if len(gen.parts) != 2 || gen.parts[1].InlineData == nil || gen.parts[1].InlineData.MimeType != "image/png" {
		t.Errorf("request parts = %+v", gen.parts)
	}
	if gen.gen == nil || gen.gen.ResponseMIMEType != "application/json" {
		t.Errorf("generation config = %+v", gen.gen)
	}
}

func TestVision_NonJSONFallsBackToRawText(t *testing.T) {
	gen := &fakeGenerator{text: "  Amoxil 250 TDS  "}
	ext, err := NewVision(gen, nil).Extract(context.Background(), pipeline.Image{Name: "rx.jpg", Data: []byte("jpg")})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if ext.RawText != "Amoxil 250 TDS" || len(ext.Medications) != 0 {
		t.Errorf("extraction = %+v", ext)
	}
	if gen.parts[1].InlineData.MimeType != "image/jpeg" {
		t.Errorf("default mime type = %q", gen.parts[1].InlineData.MimeType)
	}
}

func TestVision_Errors(t *testing.T) {
	boom := errors.New("deadline exceeded")
	if _, err := NewVision(&fakeGenerator{err: boom}, nil).Extract(context.Background(), pipeline.Image{Data: []byte("x")}); !errors.Is(err, boom) {
		t.Errorf("Extract() error = %v, want wrapped %v", err, boom)
	}

	gen := &fakeGenerator{}
	if _, err := NewVision(gen, nil).Extract(context.Background(), pipeline.Image{}); err == nil {
		t.Error("expected error for empty image")
	}
	if gen.calls != 0 {
		t.Error("empty image must not reach the model")
	}
}

func TestLinguist_Translate(t *testing.T) {
	gen := &fakeGenerator{text: "جی، سنیے"}
	text, err := NewLinguist(gen).Translate(context.Background(), pipeline.TranslationRequest{
		PatientName: "Ali",
		Medications: []schema.Medication{{Name: "Paracetamol", Dose: "500mg", Schedule: "twice daily"}},
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if text != "جی، سنیے" {
		t.Errorf("text = %q", text)
	}

	prompt := gen.parts[0].Text
	for _, want := range []string{"Patient name: Ali", "- Paracetamol | 500mg | twice daily"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLinguist_NoMedications(t *testing.T) {
	gen := &fakeGenerator{}
	text, err := NewLinguist(gen).Translate(context.Background(), pipeline.TranslationRequest{})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if text != NoMedicationsUrdu {
		t.Errorf("text = %q", text)
	}
	if gen.calls != 0 {
		t.Error("model must not be called without medications")
	}
}

type fakeTTS struct {
	audio []byte
	err   error
}

func (f fakeTTS) TextToSpeech(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.err
}

func TestSpeaker_Synthesize(t *testing.T) {
	audio, err := NewSpeaker(fakeTTS{audio: []byte("mp3")}).Synthesize(context.Background(), "متن")
	if err != nil || string(audio) != "mp3" {
		t.Errorf("Synthesize() = %q, %v", audio, err)
	}

	boom := errors.New("401")
	if _, err := NewSpeaker(fakeTTS{err: boom}).Synthesize(context.Background(), "متن"); !errors.Is(err, boom) {
		t.Errorf("Synthesize() error = %v", err)
	}
}
