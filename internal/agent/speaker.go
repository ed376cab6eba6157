package agent

import (
	"context"
	"fmt"
)

// TTS is the part of *elevenlabs.Client the speaker uses.
type TTS interface {
	TextToSpeech(ctx context.Context, text string) ([]byte, error)
}

// Speaker voices Urdu text.
type Speaker struct {
	tts TTS
}

func NewSpeaker(tts TTS) *Speaker {
	return &Speaker{tts: tts}
}

func (s *Speaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	audio, err := s.tts.TextToSpeech(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("speaker: %w", err)
	}
	return audio, nil
}
