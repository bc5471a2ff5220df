package assembly

import (
	"context"
	"fmt"

	"github.com/osorioleomar/JSON2Podcast/internal/audio"
	"github.com/osorioleomar/JSON2Podcast/internal/elevenlabs"
)

// SpeechSynthesizer adapts the ElevenLabs client to the pipeline: it
// fully buffers the remote audio payload, then decodes it to PCM.
type SpeechSynthesizer struct {
	client *elevenlabs.Client
}

// NewSpeechSynthesizer wraps an ElevenLabs client for the pipeline.
func NewSpeechSynthesizer(client *elevenlabs.Client) *SpeechSynthesizer {
	return &SpeechSynthesizer{client: client}
}

// Synthesize converts text to decoded 48kHz stereo PCM. A malformed
// payload counts as a synthesis failure like any remote error.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, voiceID, text string, settings elevenlabs.VoiceSettings) ([]int16, error) {
	payload, err := s.client.Synthesize(ctx, voiceID, text, settings)
	if err != nil {
		return nil, err
	}
	samples, err := audio.DecodeBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return samples, nil
}
