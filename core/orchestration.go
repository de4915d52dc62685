// Package orchestration routes transcribed voice queries between a
// quick-response tool set and a slower multi-agent research backend, and
// sequences acknowledgement, progress and final-answer speech through a
// single playback channel with no overlapping utterances.
package orchestration

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aria-voice/aria-core/core/config"
	"github.com/aria-voice/aria-core/core/events"
	"github.com/aria-voice/aria-core/core/reasoners"
	"github.com/aria-voice/aria-core/core/research"
	"github.com/aria-voice/aria-core/internal/utils"
)

const queryQueueSize = 16

type Orchestrator struct {
	// speechToText is the STT facade used to handle optional client wiring.
	speechToText speechToText
	// audioInput is the capture facade used to normalize capture behavior.
	audioInput  audioInput
	audioOutput audioOutput
	sink        speechSink

	reasoner ReasoningBackend
	research ResearchBackend

	weather    *weatherClient
	extraTools []reasoners.Tool

	progressThrottle       time.Duration
	firstProgressThreshold time.Duration
	hardTimeout            time.Duration
	maxToolRounds          int
	verbosity              Verbosity

	router    *router
	sequencer *sequencer

	queries   chan Query
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	researchMu      sync.Mutex
	researchCancels map[string]context.CancelFunc

	orchestrateOptions OrchestrateOptions
	emit               eventEmitter
	baseContext        context.Context
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		weather: newWeatherClient(""),

		progressThrottle:       config.DefaultProgressThrottle,
		firstProgressThreshold: config.DefaultFirstProgressThreshold,
		hardTimeout:            config.DefaultHardTimeout,
		maxToolRounds:          config.DefaultMaxToolRounds,
		verbosity:              Verbosity(config.DefaultUpdateVerbosity),

		queries:         make(chan Query, queryQueueSize),
		done:            make(chan struct{}),
		researchCancels: map[string]context.CancelFunc{},
		emit:            noopEventEmitter,
		baseContext:     context.Background(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Orchestrate starts the session: the routing worker, the response
// sequencer, and, when configured, the transcript source and capture device.
//
// ctx is the base context for routing, research and playback; cancelling it
// closes the orchestrator.
//
// Contract: call Orchestrate at most once per orchestrator instance.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	select {
	case <-o.done:
		log.Println("Warning: orchestrator already closed, skipping Orchestrate")
		return
	default:
	}

	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}

	o.baseContext = ctx
	o.emit = newCallbackEventEmitter(o.orchestrateOptions)

	o.sink.output = &o.audioOutput
	o.sink.onAudio = o.orchestrateOptions.onAudio

	o.router = &router{
		reasoner:  o.reasoner,
		tools:     append(quickResponseTools(o.weather), o.extraTools...),
		maxRounds: o.maxToolRounds,
		emit:      o.emit,
	}
	o.sequencer = newSequencer(sequencerConfig{
		progressThrottle:       o.progressThrottle,
		firstProgressThreshold: o.firstProgressThreshold,
		hardTimeout:            o.hardTimeout,
		verbosity:              o.verbosity,
	}, o.sink.speak, o.emit)
	o.sequencer.start(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := panicSafeNamedWorker("routing", o.routeQueries)(ctx); err != nil {
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	go func() {
		<-ctx.Done()
		o.Close()
	}()

	if err := o.speechToText.start(ctx, speechToTextCallbacks{
		onTranscription: func(transcript string) {
			if o.orchestrateOptions.onTranscription != nil {
				o.orchestrateOptions.onTranscription(transcript)
			}
			o.SendQuery(transcript)
		},
		onInterimTranscription: o.orchestrateOptions.onInterimTranscription,
	}, utils.Ptr(o.audioInput.EncodingInfo())); err != nil {
		recordedErr := fmt.Errorf("failed to initialize speech-to-text: %w", err)
		span := trace.SpanFromContext(ctx)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}

	o.audioInput.Start(ctx, func(audio []byte) {
		if o.orchestrateOptions.onInputAudio != nil {
			o.orchestrateOptions.onInputAudio(audio)
		}
		if err := o.speechToText.SendAudio(audio); err != nil {
			logger.Warn("failed to forward input audio", "error", err)
		}
	})
}

// SendQuery submits a transcribed query. Queries are routed serially in
// arrival order; a query whose research is still in flight does not block
// routing of the next one.
func (o *Orchestrator) SendQuery(text string) {
	select {
	case <-o.done:
		log.Println("Warning: orchestrator closed, dropping query")
		return
	default:
	}

	query := NewQuery(text)
	o.emit(events.NewQueryReceived(query.ID, query.Text))

	select {
	case o.queries <- query:
	case <-o.done:
	}
}

// SendAudio forwards captured audio to the transcript source.
func (o *Orchestrator) SendAudio(audio []byte) error {
	return o.speechToText.SendAudio(audio)
}

// AbandonQuery drops a query's remaining utterances and closes its stream.
// Research already handed to the backend is cancelled best-effort.
func (o *Orchestrator) AbandonQuery(queryID string) {
	o.researchMu.Lock()
	if cancel, ok := o.researchCancels[queryID]; ok {
		cancel()
		delete(o.researchCancels, queryID)
	}
	o.researchMu.Unlock()

	if o.sequencer != nil {
		o.sequencer.abandon(queryID)
	}
}

func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.done)

		o.researchMu.Lock()
		for _, cancel := range o.researchCancels {
			cancel()
		}
		o.researchMu.Unlock()

		o.audioInput.Close()

		if err := o.speechToText.Close(o.baseContext); err != nil {
			recordedErr := fmt.Errorf("failed to close speech-to-text client: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		if o.sequencer != nil {
			o.sequencer.close()
		}

		o.wg.Wait()
	})
}

func (o *Orchestrator) routeQueries(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-o.done:
			return nil
		case query := <-o.queries:
			o.processQuery(ctx, query)
		}
	}
}

func (o *Orchestrator) processQuery(ctx context.Context, query Query) {
	ctx, span := tracer.Start(ctx, "process query")
	defer span.End()
	span.SetAttributes(attribute.String("query.id", query.ID))

	decision := o.router.route(ctx, query)
	if decision.Route == RouteResearchBackend && o.research == nil {
		decision = RoutingDecision{
			Route:         RouteDirectAnswer,
			Answer:        fallbackAnswerText,
			Rounds:        decision.Rounds,
			Fallback:      true,
			FallbackCause: "no research backend configured",
		}
	}

	if decision.Fallback {
		o.emit(events.NewRoutingFallback(query.ID, decision.FallbackCause))
	}
	o.emit(events.NewRoutingDecided(query.ID, string(decision.Route), decision.Tool, decision.Rounds))
	span.SetAttributes(
		attribute.String("routing.route", string(decision.Route)),
		attribute.Int("routing.rounds", decision.Rounds),
	)

	o.sequencer.onRoutingDecided(query, decision)

	if decision.Route == RouteResearchBackend {
		o.startResearch(query, decision)
	}
}

func (o *Orchestrator) startResearch(query Query, decision RoutingDecision) {
	researchCtx, cancel := context.WithCancel(o.baseContext)
	o.researchMu.Lock()
	o.researchCancels[query.ID] = cancel
	o.researchMu.Unlock()

	o.emit(events.NewResearchStarted(query.ID))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			cancel()
			o.researchMu.Lock()
			delete(o.researchCancels, query.ID)
			o.researchMu.Unlock()
		}()

		err := panicSafeNamedWorker("research", func(ctx context.Context) error {
			return o.research.Process(ctx, decision.Arguments,
				research.WithProgressCallback(func(progress research.ProgressEvent) {
					o.emit(events.NewResearchProgress(query.ID, progress.Phase, progress.Sequence))
					o.sequencer.onProgress(query.ID, progress)
				}),
				research.WithAnswerCallback(func(answer string) {
					o.emit(events.NewResearchCompleted(query.ID, answer))
					o.sequencer.onFinalAnswer(query.ID, answer)
				}),
				research.WithFailureCallback(func(err error) {
					o.sequencer.onResearchFailed(query.ID, err)
				}),
			)
		})(researchCtx)
		if err != nil && researchCtx.Err() == nil {
			// The failure callback may already have fired; the sequencer
			// discards the duplicate.
			o.sequencer.onResearchFailed(query.ID, err)
		}
	}()
}
