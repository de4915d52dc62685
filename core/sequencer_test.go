package orchestration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aria-voice/aria-core/core/events"
	"github.com/aria-voice/aria-core/core/research"
)

const testTimeout = 2 * time.Second

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *eventRecorder) countDrops(cause events.DropCause) int {
	count := 0
	for _, event := range r.snapshot() {
		if dropped, ok := event.(events.UtteranceDropped); ok && dropped.Cause == cause {
			count++
		}
	}
	return count
}

func defaultTestConfig() sequencerConfig {
	return sequencerConfig{
		progressThrottle:       time.Millisecond,
		firstProgressThreshold: time.Hour,
		hardTimeout:            time.Hour,
		verbosity:              VerbosityVerbose,
	}
}

func awaitUtterance(t *testing.T, spoken <-chan SpeechUtterance) SpeechUtterance {
	t.Helper()
	select {
	case utterance := <-spoken:
		return utterance
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for an utterance")
		return SpeechUtterance{}
	}
}

func expectNoUtterance(t *testing.T, spoken <-chan SpeechUtterance, within time.Duration) {
	t.Helper()
	select {
	case utterance := <-spoken:
		t.Fatalf("expected no utterance, got %q (%s)", utterance.Text, utterance.Priority)
	case <-time.After(within):
	}
}

func TestQuickRouteSpeaksExactlyOneFinal(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	s := newSequencer(defaultTestConfig(), func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("what's 2+2")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteQuickTool, Tool: "calculate", Answer: "4"})

	utterance := awaitUtterance(t, spoken)
	if utterance.Priority != PriorityFinal {
		t.Fatalf("expected a final utterance first, got %s", utterance.Priority)
	}
	if utterance.Text != "4" {
		t.Fatalf("expected answer text %q, got %q", "4", utterance.Text)
	}

	expectNoUtterance(t, spoken, 100*time.Millisecond)
}

func TestResearchRouteAcknowledgesBeforeProgressAndFinal(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	s := newSequencer(defaultTestConfig(), func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("compare these two research papers")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})

	first := awaitUtterance(t, spoken)
	if first.Priority != PriorityAcknowledgement {
		t.Fatalf("expected acknowledgement first, got %s", first.Priority)
	}

	time.Sleep(10 * time.Millisecond) // past the test throttle
	s.onProgress(query.ID, research.ProgressEvent{Phase: "consulting specialist", Sequence: 1})

	second := awaitUtterance(t, spoken)
	if second.Priority != PriorityProgress {
		t.Fatalf("expected progress second, got %s", second.Priority)
	}

	time.Sleep(10 * time.Millisecond)
	s.onFinalAnswer(query.ID, "the second paper holds up better")

	third := awaitUtterance(t, spoken)
	if third.Priority != PriorityFinal {
		t.Fatalf("expected final third, got %s", third.Priority)
	}

	expectNoUtterance(t, spoken, 100*time.Millisecond)
}

func TestProgressThrottleDropsRapidUpdates(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	cfg := defaultTestConfig()
	cfg.progressThrottle = time.Hour

	s := newSequencer(cfg, func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("research something")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})
	awaitUtterance(t, spoken) // acknowledgement

	s.onProgress(query.ID, research.ProgressEvent{Phase: "researching", Sequence: 1})
	s.onProgress(query.ID, research.ProgressEvent{Phase: "analyzing", Sequence: 2})

	expectNoUtterance(t, spoken, 100*time.Millisecond)
	if got := recorder.countDrops(events.DropCauseThrottled); got != 2 {
		t.Fatalf("expected 2 throttled drops, got %d", got)
	}
}

func TestClosureIsIdempotent(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	s := newSequencer(defaultTestConfig(), func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("research something")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})
	awaitUtterance(t, spoken) // acknowledgement

	s.onFinalAnswer(query.ID, "done")
	final := awaitUtterance(t, spoken)
	if final.Priority != PriorityFinal {
		t.Fatalf("expected final, got %s", final.Priority)
	}

	// Late terminal and progress events are discarded, not errors.
	s.onFinalAnswer(query.ID, "done again")
	s.onProgress(query.ID, research.ProgressEvent{Phase: "late report", Sequence: 9})
	s.onResearchFailed(query.ID, fmt.Errorf("late failure"))

	expectNoUtterance(t, spoken, 100*time.Millisecond)

	closures := 0
	for _, event := range recorder.snapshot() {
		if _, ok := event.(events.QueryClosed); ok {
			closures++
		}
	}
	if closures != 1 {
		t.Fatalf("expected exactly one query closure, got %d", closures)
	}
}

func TestHardTimeoutSpeaksFallbackFinal(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	cfg := defaultTestConfig()
	cfg.hardTimeout = 20 * time.Millisecond
	cfg.verbosity = VerbositySilent

	s := newSequencer(cfg, func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("research that never returns")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})

	utterance := awaitUtterance(t, spoken)
	if utterance.Priority != PriorityFinal {
		t.Fatalf("expected fallback final, got %s", utterance.Priority)
	}
	if utterance.Text != fallbackAnswerText {
		t.Fatalf("expected fallback text, got %q", utterance.Text)
	}

	deadline := time.After(testTimeout)
	for {
		closed := false
		for _, event := range recorder.snapshot() {
			if closure, ok := event.(events.QueryClosed); ok {
				if closure.Reason != events.CloseReasonFailed {
					t.Fatalf("expected failed closure, got %s", closure.Reason)
				}
				closed = true
			}
		}
		if closed {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for query closure")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStillWorkingNoticeInjectedOnce(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	cfg := defaultTestConfig()
	cfg.firstProgressThreshold = 20 * time.Millisecond

	s := newSequencer(cfg, func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("slow research")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})
	awaitUtterance(t, spoken) // acknowledgement

	notice := awaitUtterance(t, spoken)
	if notice.Priority != PriorityProgress || notice.Text != stillWorkingText {
		t.Fatalf("expected still-working notice, got %q (%s)", notice.Text, notice.Priority)
	}

	expectNoUtterance(t, spoken, 100*time.Millisecond)
}

func TestFinalCancelsPendingProgress(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)
	release := make(chan struct{})

	s := newSequencer(defaultTestConfig(), func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		if utterance.Priority == PriorityAcknowledgement {
			<-release
		}
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("research something")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})
	awaitUtterance(t, spoken) // acknowledgement, now blocked in playback

	time.Sleep(10 * time.Millisecond)
	s.onProgress(query.ID, research.ProgressEvent{Phase: "researching", Sequence: 1})
	time.Sleep(10 * time.Millisecond)
	s.onFinalAnswer(query.ID, "here is the answer")
	time.Sleep(10 * time.Millisecond)
	close(release)

	next := awaitUtterance(t, spoken)
	if next.Priority != PriorityFinal {
		t.Fatalf("expected the pending progress to be superseded by the final, got %s", next.Priority)
	}
	if got := recorder.countDrops(events.DropCauseSuperseded); got != 1 {
		t.Fatalf("expected 1 superseded drop, got %d", got)
	}
}

func TestConcurrentQueriesDoNotInterleave(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)
	release := make(chan struct{})

	s := newSequencer(defaultTestConfig(), func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		if utterance.Priority == PriorityAcknowledgement {
			<-release
		}
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	queryA := NewQuery("long research")
	queryB := NewQuery("what time is it")

	s.onRoutingDecided(queryA, RoutingDecision{Route: RouteResearchBackend, Arguments: queryA.Text})
	awaitUtterance(t, spoken) // A's acknowledgement, blocked in playback

	// B's final buffers behind A's open stream.
	s.onRoutingDecided(queryB, RoutingDecision{Route: RouteQuickTool, Tool: "get_time", Answer: "It's currently 3:04 PM."})
	expectNoUtterance(t, spoken, 100*time.Millisecond)

	s.onFinalAnswer(queryA.ID, "research done")
	close(release)

	second := awaitUtterance(t, spoken)
	if second.QueryID != queryA.ID || second.Priority != PriorityFinal {
		t.Fatalf("expected A's final before B's utterances, got query %s (%s)", second.QueryID, second.Priority)
	}

	third := awaitUtterance(t, spoken)
	if third.QueryID != queryB.ID || third.Priority != PriorityFinal {
		t.Fatalf("expected B's final last, got query %s (%s)", third.QueryID, third.Priority)
	}
}

func TestPlaybackFailureDropsProgressButRetriesFinal(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	finalAttempts := 0
	var mu sync.Mutex

	s := newSequencer(defaultTestConfig(), func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		switch utterance.Priority {
		case PriorityProgress:
			return fmt.Errorf("sink rejected utterance")
		case PriorityFinal:
			mu.Lock()
			defer mu.Unlock()
			finalAttempts++
			if finalAttempts == 1 {
				return fmt.Errorf("sink rejected utterance")
			}
		}
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("research something")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})
	awaitUtterance(t, spoken) // acknowledgement

	time.Sleep(10 * time.Millisecond)
	s.onProgress(query.ID, research.ProgressEvent{Phase: "researching", Sequence: 1})
	awaitUtterance(t, spoken) // progress, fails in playback and is dropped

	time.Sleep(10 * time.Millisecond)
	s.onFinalAnswer(query.ID, "the answer")

	first := awaitUtterance(t, spoken)
	if first.Text != "the answer" {
		t.Fatalf("expected the original final first, got %q", first.Text)
	}

	retry := awaitUtterance(t, spoken)
	if retry.Priority != PriorityFinal || retry.Text != fallbackAnswerText {
		t.Fatalf("expected one fallback retry for the failed final, got %q (%s)", retry.Text, retry.Priority)
	}

	expectNoUtterance(t, spoken, 100*time.Millisecond)
	if got := recorder.countDrops(events.DropCausePlaybackFailed); got != 2 {
		t.Fatalf("expected 2 playback-failed drops, got %d", got)
	}
}

func TestAbandonDropsPendingUtterances(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)
	release := make(chan struct{})

	s := newSequencer(defaultTestConfig(), func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		if utterance.Priority == PriorityAcknowledgement {
			<-release
		}
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("research something")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})
	awaitUtterance(t, spoken) // acknowledgement, blocked

	time.Sleep(10 * time.Millisecond)
	s.onProgress(query.ID, research.ProgressEvent{Phase: "researching", Sequence: 1})
	time.Sleep(10 * time.Millisecond)
	s.abandon(query.ID)
	close(release)

	expectNoUtterance(t, spoken, 100*time.Millisecond)
	if got := recorder.countDrops(events.DropCauseAbandoned); got != 1 {
		t.Fatalf("expected 1 abandoned drop, got %d", got)
	}

	// A late final for the abandoned query stays silent.
	s.onFinalAnswer(query.ID, "too late")
	expectNoUtterance(t, spoken, 100*time.Millisecond)
}

func TestSilentVerbositySpeaksFinalOnly(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	cfg := defaultTestConfig()
	cfg.verbosity = VerbositySilent
	cfg.firstProgressThreshold = 10 * time.Millisecond

	s := newSequencer(cfg, func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("research quietly")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})
	s.onProgress(query.ID, research.ProgressEvent{Phase: "researching", Sequence: 1})

	time.Sleep(50 * time.Millisecond)
	s.onFinalAnswer(query.ID, "quiet answer")

	utterance := awaitUtterance(t, spoken)
	if utterance.Priority != PriorityFinal || utterance.Text != "quiet answer" {
		t.Fatalf("expected only the final, got %q (%s)", utterance.Text, utterance.Priority)
	}
	expectNoUtterance(t, spoken, 100*time.Millisecond)
}

func TestMinimalVerbositySuppressesProgressNarration(t *testing.T) {
	recorder := &eventRecorder{}
	spoken := make(chan SpeechUtterance, 16)

	cfg := defaultTestConfig()
	cfg.verbosity = VerbosityMinimal
	cfg.firstProgressThreshold = 20 * time.Millisecond

	s := newSequencer(cfg, func(_ context.Context, utterance SpeechUtterance) error {
		spoken <- utterance
		return nil
	}, recorder.emit)
	s.start(context.Background())
	defer s.close()

	query := NewQuery("compare the last two earnings reports")
	s.onRoutingDecided(query, RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text})

	first := awaitUtterance(t, spoken)
	if first.Priority != PriorityAcknowledgement {
		t.Fatalf("expected acknowledgement first, got %s", first.Priority)
	}

	time.Sleep(5 * time.Millisecond) // past the test throttle
	s.onProgress(query.ID, research.ProgressEvent{Phase: "consulting specialist", Sequence: 1})
	s.onProgress(query.ID, research.ProgressEvent{Phase: "synthesizing findings", Sequence: 2})

	second := awaitUtterance(t, spoken)
	if second.Priority != PriorityProgress || second.Text != stillWorkingText {
		t.Fatalf("expected only the still-working notice, got %q (%s)", second.Text, second.Priority)
	}

	s.onFinalAnswer(query.ID, "Revenue grew both quarters.")
	final := awaitUtterance(t, spoken)
	if final.Priority != PriorityFinal || final.Text != "Revenue grew both quarters." {
		t.Fatalf("expected the final answer, got %q (%s)", final.Text, final.Priority)
	}

	expectNoUtterance(t, spoken, 100*time.Millisecond)
}
