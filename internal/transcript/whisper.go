package transcript

import (
	"context"
	"time"
)

// AudioTranscriber is satisfied by the OpenAI service.
type AudioTranscriber interface {
	TranscribeURL(ctx context.Context, contentURL string) (string, error)
}

const whisperTimeout = 30 * time.Minute

// WhisperSource runs speech-to-text over the raw audio. It is the last rung
// of the chain: slowest, but works for any fetchable audio URL.
type WhisperSource struct {
	transcriber AudioTranscriber
}

func NewWhisperSource(transcriber AudioTranscriber) *WhisperSource {
	return &WhisperSource{transcriber: transcriber}
}

func (s *WhisperSource) Name() string { return "whisper" }

func (s *WhisperSource) Timeout() time.Duration { return whisperTimeout }

func (s *WhisperSource) Transcribe(ctx context.Context, ref, langHint string) (string, error) {
	return s.transcriber.TranscribeURL(ctx, ref)
}
