package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/pkg/gemini"
)

// Generator is the part of *gemini.Client the agents use.
type Generator interface {
	GenerateContent(ctx context.Context, gen *gemini.GenerationConfig, parts ...gemini.Part) (string, error)
}

const visionPrompt = `You are a high-accuracy handwriting recognition assistant for medical prescriptions.

Task: Extract all text from the provided prescription image.

Requirements:
- Return raw text exactly as read (do not translate or paraphrase) under 'raw_text'.
- If uncertain about a word, add '[?]' after it.
- Identify likely medication names, dosages, and scheduling abbreviations and tag them as 'medications'.
- Provide confidence estimates (High/Med/Low) for each medication line.
- Extract patient information if visible (name, age, date).
- Include any special instructions or warnings.

Output format: JSON with keys:
{
  "raw_text": "string with all extracted text",
  "medications": [
    {"name": "medication name", "dose": "dosage", "schedule": "timing", "confidence": "High/Med/Low"}
  ],
  "patient_info": {"name": "patient name if visible", "age": "age if visible", "date": "prescription date if visible"},
  "special_instructions": "any special notes or warnings"
}

Return ONLY valid JSON, no additional text.`

type visionResponse struct {
	RawText     string `json:"raw_text"`
	Medications []struct {
		Name       string `json:"name"`
		Dose       string `json:"dose"`
		Schedule   string `json:"schedule"`
		Confidence string `json:"confidence"`
	} `json:"medications"`
	PatientInfo struct {
		Name string `json:"name"`
	} `json:"patient_info"`
	SpecialInstructions string `json:"special_instructions"`
}

// Vision extracts text and draft medications from an image.
type Vision struct {
	gen Generator
	log *slog.Logger
}

func NewVision(gen Generator, log *slog.Logger) *Vision {
	if log == nil {
		log = slog.Default()
	}
	return &Vision{gen: gen, log: log}
}

// Extract sends the image with the recognition prompt. When the model does
// not answer with JSON its text is kept as the raw text and no medications
// are reported.
func (v *Vision) Extract(ctx context.Context, img pipeline.Image) (*pipeline.Extraction, error) {
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("vision: image %q is empty", img.Name)
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	text, err := v.gen.GenerateContent(ctx,
		&gemini.GenerationConfig{ResponseMIMEType: "application/json"},
		gemini.TextPart(visionPrompt),
		gemini.BlobPart(mimeType, img.Data),
	)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}

	var resp visionResponse
	if err := gemini.DecodeJSON(text, &resp); err != nil {
		v.log.Warn("vision response is not json, keeping raw text", "image", img.Name, "error", err)
		return &pipeline.Extraction{RawText: strings.TrimSpace(text)}, nil
	}

	ext := &pipeline.Extraction{
		RawText:             resp.RawText,
		PatientName:         resp.PatientInfo.Name,
		SpecialInstructions: resp.SpecialInstructions,
		Medications:         make([]pipeline.DraftMedication, 0, len(resp.Medications)),
	}
	for _, m := range resp.Medications {
		ext.Medications = append(ext.Medications, pipeline.DraftMedication{
			Name:       m.Name,
			Dose:       m.Dose,
			Schedule:   m.Schedule,
			Confidence: m.Confidence,
		})
	}
	return ext, nil
}
