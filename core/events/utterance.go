package events

const (
	// KindUtteranceEnqueued identifies acceptance into the playback queue.
	KindUtteranceEnqueued Kind = "utterance.enqueued"
	// KindUtteranceStarted identifies handoff to the speech output sink.
	KindUtteranceStarted Kind = "utterance.started"
	// KindUtterancePlayed identifies confirmed playback.
	KindUtterancePlayed Kind = "utterance.played"
	// KindUtteranceDropped identifies discard before or during playback.
	KindUtteranceDropped Kind = "utterance.dropped"
)

// DropCause describes why an utterance was discarded.
type DropCause string

const (
	DropCauseSuperseded     DropCause = "superseded"
	DropCauseThrottled      DropCause = "throttled"
	DropCausePlaybackFailed DropCause = "playback_failed"
	DropCauseAbandoned      DropCause = "abandoned"
)

// UtteranceEnqueued marks acceptance of an utterance into the playback queue.
type UtteranceEnqueued struct {
	Base
	QueryID     string
	UtteranceID string
	Priority    string
	Text        string
}

// NewUtteranceEnqueued creates an utterance enqueued event.
func NewUtteranceEnqueued(queryID, utteranceID, priority, text string) UtteranceEnqueued {
	return UtteranceEnqueued{Base: NewBase(KindUtteranceEnqueued), QueryID: queryID, UtteranceID: utteranceID, Priority: priority, Text: text}
}

// UtteranceStarted marks handoff of an utterance to the speech output sink.
type UtteranceStarted struct {
	Base
	QueryID     string
	UtteranceID string
	Priority    string
	Text        string
}

// NewUtteranceStarted creates an utterance started event.
func NewUtteranceStarted(queryID, utteranceID, priority, text string) UtteranceStarted {
	return UtteranceStarted{Base: NewBase(KindUtteranceStarted), QueryID: queryID, UtteranceID: utteranceID, Priority: priority, Text: text}
}

// UtterancePlayed marks confirmed playback of an utterance.
type UtterancePlayed struct {
	Base
	QueryID     string
	UtteranceID string
	Priority    string
	Text        string
}

// NewUtterancePlayed creates an utterance played event.
func NewUtterancePlayed(queryID, utteranceID, priority, text string) UtterancePlayed {
	return UtterancePlayed{Base: NewBase(KindUtterancePlayed), QueryID: queryID, UtteranceID: utteranceID, Priority: priority, Text: text}
}

// UtteranceDropped marks discard of an utterance before or during playback.
type UtteranceDropped struct {
	Base
	QueryID     string
	UtteranceID string
	Priority    string
	Cause       DropCause
}

// NewUtteranceDropped creates an utterance dropped event.
func NewUtteranceDropped(queryID, utteranceID, priority string, cause DropCause) UtteranceDropped {
	return UtteranceDropped{Base: NewBase(KindUtteranceDropped), QueryID: queryID, UtteranceID: utteranceID, Priority: priority, Cause: cause}
}
