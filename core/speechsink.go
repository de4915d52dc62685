package orchestration

import (
	"context"

	"github.com/aria-voice/aria-core/core/speechoutput"
)

// speechSink is the speech-output facade. Synthesized audio flows to the
// configured audio output device and the session's audio callback; speak
// blocks until the utterance has fully sounded, which is what keeps
// utterances from overlapping.
type speechSink struct {
	client SpeechOutput

	output  *audioOutput
	onAudio func(audio []byte)
}

func (s *speechSink) set(client SpeechOutput) {
	if s != nil {
		s.client = client
	}
}

func (s *speechSink) speak(ctx context.Context, utterance SpeechUtterance) error {
	if s == nil || s.client == nil {
		// Headless session: the utterance "plays" instantly.
		return nil
	}

	speakOptions := []speechoutput.SpeakOption{
		speechoutput.WithSpeechAudioCallback(func(audio []byte) {
			if s.onAudio != nil {
				s.onAudio(audio)
			}
			if err := s.output.SendAudio(audio); err != nil {
				logger.Warn("failed to forward speech audio to output device", "error", err)
			}
		}),
	}
	if encodingInfo := s.output.EncodingInfo(); !encodingInfo.IsZero() {
		speakOptions = append(speakOptions, speechoutput.WithEncodingInfo(encodingInfo))
	}

	if err := s.client.Speak(ctx, utterance.Text, speakOptions...); err != nil {
		return err
	}

	// Synthesis finished; wait for the device to actually drain it.
	return s.output.AwaitMark()
}
