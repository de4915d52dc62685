package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/aria-voice/aria-core/core/events"
	"github.com/aria-voice/aria-core/core/research"
)

// Verbosity selects which latency-bridging utterances are spoken while the
// research backend works. Final answers are always spoken.
type Verbosity string

const (
	// VerbositySilent speaks final answers only.
	VerbositySilent Verbosity = "silent"
	// VerbosityMinimal speaks the acknowledgement and the still-working
	// notice, but no phase narration.
	VerbosityMinimal Verbosity = "minimal"
	// VerbosityVerbose speaks the full progress narration.
	VerbosityVerbose Verbosity = "verbose"
)

const (
	acknowledgementText = "Let me look into that"
	stillWorkingText    = "Still working on that…"
	fallbackAnswerText  = "I encountered an issue, could you rephrase that?"

	maxProgressWords   = 5
	sequencerQueueSize = 32
)

type sequencerConfig struct {
	progressThrottle       time.Duration
	firstProgressThreshold time.Duration
	hardTimeout            time.Duration
	verbosity              Verbosity
}

type speakFunc func(ctx context.Context, utterance SpeechUtterance) error

// sequencer owns the single playback channel. All producers post events onto
// a bounded queue consumed by one goroutine, so per-query state needs no
// locking. Utterances for a query are emitted acknowledgement → progress →
// final, and queries never interleave: query B's utterances wait until query
// A's stream is closed.
type sequencer struct {
	cfg   sequencerConfig
	speak speakFunc
	emit  eventEmitter

	events    chan sequencerEvent
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once

	baseContext context.Context

	// Consumer-owned state, touched only by the run goroutine.
	order   []string
	streams map[string]*utteranceStream
	playing *SpeechUtterance
}

// utteranceStream tracks one query's slice of the output channel.
type utteranceStream struct {
	query   Query
	pending []SpeechUtterance

	lastAcceptedAt   time.Time
	hasAccepted      bool
	lastSequence     int
	finalIssued      bool
	finalRetried     bool
	stillWorkingSent bool
	abandoned        bool
	closeReason      events.CloseReason

	stillWorkingTimer *time.Timer
	hardTimeoutTimer  *time.Timer
}

type sequencerEvent interface{ isSequencerEvent() }

type evRoutingDecided struct {
	query    Query
	decision RoutingDecision
}

type evProgress struct {
	queryID  string
	progress research.ProgressEvent
}

type evFinalAnswer struct {
	queryID string
	answer  string
}

type evResearchFailed struct {
	queryID string
	err     error
}

type evStillWorkingDue struct{ queryID string }

type evHardTimeout struct{ queryID string }

type evPlaybackDone struct {
	utterance SpeechUtterance
	err       error
}

type evAbandon struct{ queryID string }

func (evRoutingDecided) isSequencerEvent()  {}
func (evProgress) isSequencerEvent()        {}
func (evFinalAnswer) isSequencerEvent()     {}
func (evResearchFailed) isSequencerEvent()  {}
func (evStillWorkingDue) isSequencerEvent() {}
func (evHardTimeout) isSequencerEvent()     {}
func (evPlaybackDone) isSequencerEvent()    {}
func (evAbandon) isSequencerEvent()         {}

func newSequencer(cfg sequencerConfig, speak speakFunc, emit eventEmitter) *sequencer {
	if emit == nil {
		emit = noopEventEmitter
	}
	return &sequencer{
		cfg:         cfg,
		speak:       speak,
		emit:        emit,
		events:      make(chan sequencerEvent, sequencerQueueSize),
		done:        make(chan struct{}),
		loopDone:    make(chan struct{}),
		baseContext: context.Background(),
		streams:     map[string]*utteranceStream{},
	}
}

func (s *sequencer) start(ctx context.Context) {
	if ctx != nil {
		s.baseContext = ctx
	}
	go s.run()
}

// close stops the consumer. Pending utterances are not played out.
func (s *sequencer) close() {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.loopDone
}

func (s *sequencer) onRoutingDecided(query Query, decision RoutingDecision) {
	s.post(evRoutingDecided{query: query, decision: decision})
}

func (s *sequencer) onProgress(queryID string, progress research.ProgressEvent) {
	s.post(evProgress{queryID: queryID, progress: progress})
}

func (s *sequencer) onFinalAnswer(queryID, answer string) {
	s.post(evFinalAnswer{queryID: queryID, answer: answer})
}

func (s *sequencer) onResearchFailed(queryID string, err error) {
	s.post(evResearchFailed{queryID: queryID, err: err})
}

func (s *sequencer) abandon(queryID string) {
	s.post(evAbandon{queryID: queryID})
}

func (s *sequencer) post(event sequencerEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	}
}

func (s *sequencer) run() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.done:
			for _, stream := range s.streams {
				stream.stopTimers()
			}
			return
		case event := <-s.events:
			s.handle(event)
			s.dispatch()
		}
	}
}

func (s *sequencer) handle(event sequencerEvent) {
	switch ev := event.(type) {
	case evRoutingDecided:
		s.handleRoutingDecided(ev.query, ev.decision)
	case evProgress:
		s.handleProgress(ev.queryID, ev.progress)
	case evFinalAnswer:
		s.handleFinal(ev.queryID, ev.answer, events.CloseReasonAnswered)
	case evResearchFailed:
		s.handleResearchFailure(ev.queryID, ev.err.Error())
	case evStillWorkingDue:
		s.handleStillWorkingDue(ev.queryID)
	case evHardTimeout:
		s.handleHardTimeout(ev.queryID)
	case evPlaybackDone:
		s.handlePlaybackDone(ev.utterance, ev.err)
	case evAbandon:
		s.handleAbandon(ev.queryID)
	}
}

func (s *sequencer) handleRoutingDecided(query Query, decision RoutingDecision) {
	if _, exists := s.streams[query.ID]; exists {
		logger.Warn("duplicate routing decision ignored", "query_id", query.ID)
		return
	}

	stream := &utteranceStream{query: query}
	s.streams[query.ID] = stream
	s.order = append(s.order, query.ID)

	if decision.Route != RouteResearchBackend {
		// Sub-second path: the answer text is already known.
		s.enqueue(stream, PriorityFinal, decision.Answer)
		stream.closeReason = events.CloseReasonAnswered
		return
	}

	if s.cfg.verbosity != VerbositySilent {
		s.enqueue(stream, PriorityAcknowledgement, acknowledgementText)
	}

	queryID := query.ID
	if s.cfg.verbosity != VerbositySilent {
		stream.stillWorkingTimer = time.AfterFunc(s.cfg.firstProgressThreshold, func() {
			s.post(evStillWorkingDue{queryID: queryID})
		})
	}
	stream.hardTimeoutTimer = time.AfterFunc(s.cfg.hardTimeout, func() {
		s.post(evHardTimeout{queryID: queryID})
	})
}

func (s *sequencer) handleProgress(queryID string, progress research.ProgressEvent) {
	stream := s.streams[queryID]
	if stream == nil || stream.finalIssued {
		// Idempotent discard: late reports after the terminal event are
		// not an error.
		return
	}
	if progress.Sequence <= stream.lastSequence {
		return
	}
	stream.lastSequence = progress.Sequence

	if s.cfg.verbosity != VerbosityVerbose {
		return
	}
	s.enqueue(stream, PriorityProgress, clampWords(progress.Phase, maxProgressWords))
}

func (s *sequencer) handleFinal(queryID, answer string, reason events.CloseReason) {
	stream := s.streams[queryID]
	if stream == nil || stream.finalIssued {
		return
	}

	stream.stopTimers()
	stream.closeReason = reason
	s.enqueue(stream, PriorityFinal, answer)
}

func (s *sequencer) handleResearchFailure(queryID, cause string) {
	stream := s.streams[queryID]
	if stream == nil || stream.finalIssued {
		return
	}

	s.emit(events.NewResearchFailed(queryID, cause))
	s.handleFinal(queryID, fallbackAnswerText, events.CloseReasonFailed)
}

func (s *sequencer) handleStillWorkingDue(queryID string) {
	stream := s.streams[queryID]
	if stream == nil || stream.finalIssued || stream.stillWorkingSent {
		return
	}

	stream.stillWorkingSent = true
	s.enqueue(stream, PriorityProgress, stillWorkingText)
}

func (s *sequencer) handleHardTimeout(queryID string) {
	stream := s.streams[queryID]
	if stream == nil || stream.finalIssued {
		return
	}

	logger.Error("research backend produced no terminal event within the hard timeout",
		"query_id", queryID, "timeout", s.cfg.hardTimeout)
	s.handleResearchFailure(queryID, "hard timeout exceeded")
}

func (s *sequencer) handleAbandon(queryID string) {
	stream := s.streams[queryID]
	if stream == nil {
		return
	}

	stream.stopTimers()
	stream.abandoned = true
	stream.finalIssued = true
	stream.closeReason = events.CloseReasonAbandoned
	for _, utterance := range stream.pending {
		s.emit(events.NewUtteranceDropped(
			utterance.QueryID, utterance.ID, string(utterance.Priority), events.DropCauseAbandoned))
	}
	stream.pending = nil

	if s.playing == nil || s.playing.QueryID != queryID {
		s.closeStream(queryID)
	}
	// Otherwise the in-flight utterance finishes and closure happens on
	// its playback result.
}

func (s *sequencer) handlePlaybackDone(utterance SpeechUtterance, err error) {
	s.playing = nil
	stream := s.streams[utterance.QueryID]

	if err == nil {
		s.emit(events.NewUtterancePlayed(
			utterance.QueryID, utterance.ID, string(utterance.Priority), utterance.Text))
		if stream == nil {
			return
		}
		if stream.abandoned {
			s.closeStream(utterance.QueryID)
			return
		}
		if utterance.Priority == PriorityFinal {
			s.closeStream(utterance.QueryID)
		}
		return
	}

	if utterance.Priority != PriorityFinal {
		// Losing a progress update is acceptable, the next queued
		// utterance proceeds.
		logger.Warn("dropping utterance after playback failure",
			"query_id", utterance.QueryID, "priority", string(utterance.Priority), "error", err)
		s.emit(events.NewUtteranceDropped(
			utterance.QueryID, utterance.ID, string(utterance.Priority), events.DropCausePlaybackFailed))
		if stream != nil && stream.abandoned {
			s.closeStream(utterance.QueryID)
		}
		return
	}

	logger.Error("playback failed for final utterance",
		"query_id", utterance.QueryID, "error", err)
	s.emit(events.NewUtteranceDropped(
		utterance.QueryID, utterance.ID, string(utterance.Priority), events.DropCausePlaybackFailed))

	if stream == nil || stream.abandoned || stream.finalRetried {
		s.closeStream(utterance.QueryID)
		return
	}

	// One retry, substituting the fallback apology.
	stream.finalRetried = true
	retry := newUtterance(utterance.QueryID, PriorityFinal, fallbackAnswerText)
	stream.pending = append([]SpeechUtterance{retry}, stream.pending...)
	s.emit(events.NewUtteranceEnqueued(retry.QueryID, retry.ID, string(retry.Priority), retry.Text))
}

// enqueue applies the admission rules for a single query's stream and emits
// the corresponding utterance event.
func (s *sequencer) enqueue(stream *utteranceStream, priority UtterancePriority, text string) {
	if stream.finalIssued {
		dropped := newUtterance(stream.query.ID, priority, text)
		s.emit(events.NewUtteranceDropped(
			dropped.QueryID, dropped.ID, string(dropped.Priority), events.DropCauseSuperseded))
		return
	}

	if priority == PriorityProgress && stream.hasAccepted &&
		time.Since(stream.lastAcceptedAt) < s.cfg.progressThrottle {
		dropped := newUtterance(stream.query.ID, priority, text)
		s.emit(events.NewUtteranceDropped(
			dropped.QueryID, dropped.ID, string(dropped.Priority), events.DropCauseThrottled))
		return
	}

	if priority == PriorityFinal {
		kept := stream.pending[:0]
		for _, pending := range stream.pending {
			if pending.Priority == PriorityProgress {
				s.emit(events.NewUtteranceDropped(
					pending.QueryID, pending.ID, string(pending.Priority), events.DropCauseSuperseded))
				continue
			}
			kept = append(kept, pending)
		}
		stream.pending = kept
		stream.finalIssued = true
	}

	utterance := newUtterance(stream.query.ID, priority, text)
	stream.pending = append(stream.pending, utterance)
	stream.lastAcceptedAt = utterance.EnqueuedAt
	stream.hasAccepted = true
	s.emit(events.NewUtteranceEnqueued(
		utterance.QueryID, utterance.ID, string(utterance.Priority), utterance.Text))
}

// dispatch hands the head query's next utterance to the playback worker.
// Only the oldest open query may speak; younger queries buffer until its
// stream closes.
func (s *sequencer) dispatch() {
	if s.playing != nil {
		return
	}

	for len(s.order) > 0 {
		stream := s.streams[s.order[0]]
		if stream == nil {
			s.order = s.order[1:]
			continue
		}
		if len(stream.pending) == 0 {
			if stream.abandoned {
				s.closeStream(stream.query.ID)
				continue
			}
			return
		}

		utterance := stream.pending[0]
		stream.pending = stream.pending[1:]
		s.playing = &utterance
		s.emit(events.NewUtteranceStarted(
			utterance.QueryID, utterance.ID, string(utterance.Priority), utterance.Text))

		go func() {
			err := s.speak(s.baseContext, utterance)
			s.post(evPlaybackDone{utterance: utterance, err: err})
		}()
		return
	}
}

func (s *sequencer) closeStream(queryID string) {
	stream := s.streams[queryID]
	if stream == nil {
		return
	}

	stream.stopTimers()
	reason := stream.closeReason
	if reason == "" {
		reason = events.CloseReasonAnswered
	}

	delete(s.streams, queryID)
	for i, id := range s.order {
		if id == queryID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.emit(events.NewQueryClosed(queryID, reason))
}

func (stream *utteranceStream) stopTimers() {
	if stream.stillWorkingTimer != nil {
		stream.stillWorkingTimer.Stop()
		stream.stillWorkingTimer = nil
	}
	if stream.hardTimeoutTimer != nil {
		stream.hardTimeoutTimer.Stop()
		stream.hardTimeoutTimer = nil
	}
}
