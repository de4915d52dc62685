package orchestration

import (
	"context"
	"fmt"

	"github.com/aria-voice/aria-core/core/audio"
	"github.com/aria-voice/aria-core/core/speechtotext"
)

// speechToText is the transcript-source facade. It normalizes optional
// client wiring: with no client configured every method is a no-op.
type speechToText struct {
	client SpeechToText
}

type speechToTextCallbacks struct {
	onTranscription        func(transcript string)
	onInterimTranscription func(transcript string)
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) start(ctx context.Context, callbacks speechToTextCallbacks, encodingInfo *audio.EncodingInfo) error {
	if !s.isConfigured() {
		return nil
	}

	sttOptions := []speechtotext.TranscriptionOption{
		speechtotext.WithTranscriptionCallback(callbacks.onTranscription),
		speechtotext.WithEncodingInfo(*encodingInfo),
	}
	if callbacks.onInterimTranscription != nil {
		sttOptions = append(sttOptions,
			speechtotext.WithInterimTranscriptionCallback(callbacks.onInterimTranscription))
	}

	if err := s.client.Transcribe(ctx, sttOptions...); err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}

	return nil
}

func (s *speechToText) SendAudio(audio []byte) error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.SendAudio(audio)
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}
