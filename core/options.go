package orchestration

import (
	"context"
	"time"

	"github.com/aria-voice/aria-core/core/audio"
	"github.com/aria-voice/aria-core/core/events"
	"github.com/aria-voice/aria-core/core/reasoners"
	"github.com/aria-voice/aria-core/core/research"
	"github.com/aria-voice/aria-core/core/speechoutput"
	"github.com/aria-voice/aria-core/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

// ReasoningBackend performs a single completion round against a declared
// tool catalog. The orchestrator owns the loop around it.
type ReasoningBackend interface {
	Complete(ctx context.Context, prompt string, opts ...reasoners.PromptOption) (*reasoners.Response, error)
}

func WithReasoningBackend(client ReasoningBackend) OrchestratorOption {
	return func(o *Orchestrator) { o.reasoner = client }
}

// ResearchBackend processes a delegated question, reporting progress and a
// terminal answer or failure through the passed options. Process blocks
// until a terminal event or context cancellation.
type ResearchBackend interface {
	Process(ctx context.Context, query string, opts ...research.ProcessOption) error
}

func WithResearchBackend(client ResearchBackend) OrchestratorOption {
	return func(o *Orchestrator) { o.research = client }
}

// SpeechOutput synthesizes one utterance per Speak call, returning once all
// audio has been produced or playback failed.
type SpeechOutput interface {
	Speak(ctx context.Context, text string, opts ...speechoutput.SpeakOption) error
}

func WithSpeechOutput(client SpeechOutput) OrchestratorOption {
	return func(o *Orchestrator) { o.sink.set(client) }
}

type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) { o.speechToText.set(client) }
}

type AudioInput interface {
	EncodingInfo() audio.EncodingInfo
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	Close()
}

func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.set(client) }
}

type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	AwaitMark() error
}

func WithAudioOutput(client AudioOutput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.set(client) }
}

// WithQuickTools appends tools to the built-in quick-response catalog.
func WithQuickTools(tools ...reasoners.Tool) OrchestratorOption {
	return func(o *Orchestrator) { o.extraTools = append(o.extraTools, tools...) }
}

// WithWeatherAPIKey configures the built-in weather tool. Without a key the
// tool fails and routing degrades to the apologetic direct answer.
func WithWeatherAPIKey(apiKey string) OrchestratorOption {
	return func(o *Orchestrator) { o.weather.apiKey = apiKey }
}

func WithProgressThrottle(interval time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.progressThrottle = interval
		}
	}
}

func WithFirstProgressThreshold(threshold time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if threshold > 0 {
			o.firstProgressThreshold = threshold
		}
	}
}

func WithHardTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.hardTimeout = timeout
		}
	}
}

func WithMaxToolRounds(rounds int) OrchestratorOption {
	return func(o *Orchestrator) {
		if rounds > 0 {
			o.maxToolRounds = rounds
		}
	}
}

func WithVerbosity(verbosity Verbosity) OrchestratorOption {
	return func(o *Orchestrator) {
		switch verbosity {
		case VerbositySilent, VerbosityMinimal, VerbosityVerbose:
			o.verbosity = verbosity
		}
	}
}

type OrchestrateOptions struct {
	onTranscription        func(transcript string)
	onInterimTranscription func(transcript string)

	onQueryReceived    func(queryID, text string)
	onRoutingDecided   func(queryID string, route RouteKind, tool string)
	onResearchProgress func(queryID, phase string)
	onUtteranceStarted func(queryID, priority, text string)
	onUtterancePlayed  func(queryID, text string)
	onUtteranceDropped func(queryID, cause string)
	onQueryClosed      func(queryID, reason string)

	onInputAudio func(audio []byte)
	onAudio      func(audio []byte)

	onEvent func(event events.Event)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithTranscriptionCallback registers a callback for final transcriptions
// produced by the configured speech-to-text client. Queries submitted
// through [Orchestrator.SendQuery] do not trigger this callback.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTranscription = callback }
}

func WithInterimTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onInterimTranscription = callback }
}

func WithQueryReceivedCallback(callback func(queryID, text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onQueryReceived = callback }
}

func WithRoutingDecidedCallback(callback func(queryID string, route RouteKind, tool string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onRoutingDecided = callback }
}

func WithResearchProgressCallback(callback func(queryID, phase string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onResearchProgress = callback }
}

// WithUtteranceStartedCallback registers a callback invoked when an
// utterance is handed to the speech output sink.
func WithUtteranceStartedCallback(callback func(queryID, priority, text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onUtteranceStarted = callback }
}

func WithUtterancePlayedCallback(callback func(queryID, text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onUtterancePlayed = callback }
}

func WithUtteranceDroppedCallback(callback func(queryID, cause string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onUtteranceDropped = callback }
}

func WithQueryClosedCallback(callback func(queryID, reason string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onQueryClosed = callback }
}

// WithInputAudioCallback registers a callback for raw input audio chunks.
// The slice is passed through as-is; the callback runs inline on the
// input-audio path and should not block.
func WithInputAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onInputAudio = callback }
}

// WithAudioCallback registers a callback for synthesized speech audio
// chunks.
func WithAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onAudio = callback }
}

// WithEventCallback registers a tap receiving every session event, in
// emission order.
func WithEventCallback(callback func(event events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onEvent = callback }
}
