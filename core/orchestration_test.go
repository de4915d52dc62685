package orchestration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aria-voice/aria-core/core/events"
	"github.com/aria-voice/aria-core/core/reasoners"
	"github.com/aria-voice/aria-core/core/research"
	"github.com/aria-voice/aria-core/core/speechoutput"
)

// fakeSpeechOutput reports each spoken text on a channel.
type fakeSpeechOutput struct {
	spoken chan string
}

func newFakeSpeechOutput() *fakeSpeechOutput {
	return &fakeSpeechOutput{spoken: make(chan string, 16)}
}

func (f *fakeSpeechOutput) Speak(_ context.Context, text string, _ ...speechoutput.SpeakOption) error {
	f.spoken <- text
	return nil
}

// fakeResearchBackend hands each delegated query to the configured run
// function together with the resolved process options.
type fakeResearchBackend struct {
	queries chan string
	run     func(ctx context.Context, query string, options research.ProcessOptions) error
}

func newFakeResearchBackend(run func(ctx context.Context, query string, options research.ProcessOptions) error) *fakeResearchBackend {
	return &fakeResearchBackend{queries: make(chan string, 16), run: run}
}

func (f *fakeResearchBackend) Process(ctx context.Context, query string, opts ...research.ProcessOption) error {
	options := research.ProcessOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	f.queries <- query
	if f.run == nil {
		return nil
	}
	return f.run(ctx, query, options)
}

func awaitText(t *testing.T, spoken <-chan string) string {
	t.Helper()
	select {
	case text := <-spoken:
		return text
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for spoken text")
		return ""
	}
}

func awaitString(t *testing.T, values <-chan string, what string) string {
	t.Helper()
	select {
	case value := <-values:
		return value
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}

func TestOrchestratorAnswersQuickQuery(t *testing.T) {
	sink := newFakeSpeechOutput()
	reasoner := &scriptedReasoner{responses: []*reasoners.Response{
		{ToolCalls: []reasoners.ToolCall{
			{ID: "call_1", Name: "calculate", Arguments: `{"expression": "2+2"}`},
		}},
	}}

	orchestrator := NewOrchestrator(
		WithReasoningBackend(reasoner),
		WithSpeechOutput(sink),
	)
	defer orchestrator.Close()

	closed := make(chan string, 1)
	orchestrator.Orchestrate(context.Background(),
		WithQueryClosedCallback(func(_, reason string) { closed <- reason }),
	)

	orchestrator.SendQuery("what's 2+2")

	if text := awaitText(t, sink.spoken); text != "4" {
		t.Fatalf("expected the tool result spoken as-is, got %q", text)
	}
	if reason := awaitString(t, closed, "query closure"); reason != string(events.CloseReasonAnswered) {
		t.Fatalf("expected answered closure, got %q", reason)
	}
}

func TestOrchestratorDelegatesResearch(t *testing.T) {
	sink := newFakeSpeechOutput()
	backend := newFakeResearchBackend(func(_ context.Context, _ string, options research.ProcessOptions) error {
		time.Sleep(20 * time.Millisecond) // past the test throttle
		options.ProgressCallback(research.ProgressEvent{Phase: "consulting specialist agents", Sequence: 1})
		time.Sleep(20 * time.Millisecond)
		options.AnswerCallback("jazz came out of New Orleans")
		return nil
	})

	orchestrator := NewOrchestrator(
		WithResearchBackend(backend),
		WithSpeechOutput(sink),
		WithProgressThrottle(time.Millisecond),
	)
	defer orchestrator.Close()

	closed := make(chan string, 1)
	orchestrator.Orchestrate(context.Background(),
		WithQueryClosedCallback(func(_, reason string) { closed <- reason }),
	)

	query := "research the history of jazz"
	orchestrator.SendQuery(query)

	if delegated := awaitString(t, backend.queries, "research delegation"); delegated != query {
		t.Fatalf("expected the raw query delegated, got %q", delegated)
	}

	if text := awaitText(t, sink.spoken); text != acknowledgementText {
		t.Fatalf("expected the acknowledgement first, got %q", text)
	}
	if text := awaitText(t, sink.spoken); text != "consulting specialist agents" {
		t.Fatalf("expected the progress narration, got %q", text)
	}
	if text := awaitText(t, sink.spoken); text != "jazz came out of New Orleans" {
		t.Fatalf("expected the final answer, got %q", text)
	}
	if reason := awaitString(t, closed, "query closure"); reason != string(events.CloseReasonAnswered) {
		t.Fatalf("expected answered closure, got %q", reason)
	}
}

func TestOrchestratorResearchFailureSpeaksFallback(t *testing.T) {
	sink := newFakeSpeechOutput()
	backend := newFakeResearchBackend(func(_ context.Context, _ string, options research.ProcessOptions) error {
		options.FailureCallback(fmt.Errorf("crew dissolved"))
		return nil
	})

	orchestrator := NewOrchestrator(
		WithResearchBackend(backend),
		WithSpeechOutput(sink),
	)
	defer orchestrator.Close()

	closed := make(chan string, 1)
	orchestrator.Orchestrate(context.Background(),
		WithQueryClosedCallback(func(_, reason string) { closed <- reason }),
	)

	orchestrator.SendQuery("research something doomed")

	if text := awaitText(t, sink.spoken); text != acknowledgementText {
		t.Fatalf("expected the acknowledgement first, got %q", text)
	}
	if text := awaitText(t, sink.spoken); text != fallbackAnswerText {
		t.Fatalf("expected the fallback answer, got %q", text)
	}
	if reason := awaitString(t, closed, "query closure"); reason != string(events.CloseReasonFailed) {
		t.Fatalf("expected failed closure, got %q", reason)
	}
}

func TestOrchestratorWithoutResearchBackendFallsBack(t *testing.T) {
	sink := newFakeSpeechOutput()

	orchestrator := NewOrchestrator(WithSpeechOutput(sink))
	defer orchestrator.Close()

	fallbacks := make(chan string, 1)
	orchestrator.Orchestrate(context.Background(),
		WithEventCallback(func(event events.Event) {
			if fallback, ok := event.(events.RoutingFallback); ok {
				fallbacks <- fallback.Cause
			}
		}),
	)

	orchestrator.SendQuery("research the history of jazz")

	if text := awaitText(t, sink.spoken); text != fallbackAnswerText {
		t.Fatalf("expected the fallback answer, got %q", text)
	}
	if cause := awaitString(t, fallbacks, "routing fallback"); cause != "no research backend configured" {
		t.Fatalf("unexpected fallback cause %q", cause)
	}
}

func TestOrchestratorAbandonQueryCancelsResearch(t *testing.T) {
	sink := newFakeSpeechOutput()
	cancelled := make(chan struct{})
	backend := newFakeResearchBackend(func(ctx context.Context, _ string, _ research.ProcessOptions) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	orchestrator := NewOrchestrator(
		WithResearchBackend(backend),
		WithSpeechOutput(sink),
	)
	defer orchestrator.Close()

	queryIDs := make(chan string, 1)
	closed := make(chan string, 1)
	orchestrator.Orchestrate(context.Background(),
		WithQueryReceivedCallback(func(queryID, _ string) { queryIDs <- queryID }),
		WithQueryClosedCallback(func(_, reason string) { closed <- reason }),
	)

	orchestrator.SendQuery("research something endless")
	queryID := awaitString(t, queryIDs, "query ID")

	awaitText(t, sink.spoken) // acknowledgement
	orchestrator.AbandonQuery(queryID)

	select {
	case <-cancelled:
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for research cancellation")
	}
	if reason := awaitString(t, closed, "query closure"); reason != string(events.CloseReasonAbandoned) {
		t.Fatalf("expected abandoned closure, got %q", reason)
	}
}

func TestOrchestratorCloseIsIdempotent(t *testing.T) {
	orchestrator := NewOrchestrator()
	orchestrator.Orchestrate(context.Background())

	orchestrator.Close()
	orchestrator.Close()

	// Queries after close are dropped, not routed and not panicking.
	orchestrator.SendQuery("what's 2+2")
}
