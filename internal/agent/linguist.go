package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/pkg/gemini"
)

// NoMedicationsUrdu is spoken when nothing could be read.
const NoMedicationsUrdu = "کوئی دوائی نہیں ملی۔"

// Linguist writes conversational Urdu instructions for low-literacy patients.
type Linguist struct {
	gen Generator
}

func NewLinguist(gen Generator) *Linguist {
	return &Linguist{gen: gen}
}

func (l *Linguist) Translate(ctx context.Context, req pipeline.TranslationRequest) (string, error) {
	if len(req.Medications) == 0 {
		return NoMedicationsUrdu, nil
	}
	text, err := l.gen.GenerateContent(ctx, nil, gemini.TextPart(urduPrompt(req)))
	if err != nil {
		return "", fmt.Errorf("linguist: %w", err)
	}
	return text, nil
}

func urduPrompt(req pipeline.TranslationRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an assistant that converts medical prescriptions into very simple, conversational Urdu suitable for low-literacy patients.\n\n")
	if name := strings.TrimSpace(req.PatientName); name != "" {
		fmt.Fprintf(&sb, "Patient name: %s\n\n", name)
	}
	sb.WriteString(`Constraints:
- Use short sentences and everyday Urdu (not formal literary Urdu).
- For each medicine, tell the name, how much to take, when to take it.
- If the schedule contains 'as needed', explain in Urdu when to take it.
- Avoid technical jargon; use simple words like 'subah, dopahar, raat' (صبح، دوپہر، رات) and numerals for doses.
- Make it sound natural and friendly for audio playback.
- Do NOT use any asterisks (*), bold formatting, hashtags (#), or special characters.
- Use plain text only with proper Urdu punctuation.
- Start with a friendly greeting like "Jee, suniye" or "Assalam-o-Alaikum".

Medications:
`)
	for _, m := range req.Medications {
		fmt.Fprintf(&sb, "- %s | %s | %s\n", m.Name, m.Dose, m.Schedule)
	}
	sb.WriteString("\nProduce ONLY the final spoken Urdu instructions (no English, no JSON, no extra formatting, no asterisks or special characters).")
	return sb.String()
}
