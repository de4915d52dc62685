package speechoutput

import "github.com/aria-voice/aria-core/core/audio"

type SpeakOptions struct {
	// SpeechAudioCallback is called for each synthesized audio chunk.
	SpeechAudioCallback func(audio []byte)
	// SpeechEndedCallback is called once all audio for the utterance has been
	// produced.
	SpeechEndedCallback func()

	EncodingInfo audio.EncodingInfo
}

type SpeakOption func(*SpeakOptions)

func WithSpeechAudioCallback(callback func(audio []byte)) SpeakOption {
	return func(o *SpeakOptions) {
		o.SpeechAudioCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) SpeakOption {
	return func(o *SpeakOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeakOption {
	return func(o *SpeakOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}
