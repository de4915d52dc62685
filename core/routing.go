package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aria-voice/aria-core/core/events"
	"github.com/aria-voice/aria-core/core/reasoners"
)

// RouteKind tags a routing decision with the path a query takes.
type RouteKind string

const (
	RouteQuickTool       RouteKind = "quick_tool"
	RouteResearchBackend RouteKind = "research_backend"
	RouteDirectAnswer    RouteKind = "direct_answer"
)

// RoutingDecision is produced exactly once per query. For QuickTool and
// DirectAnswer routes the speakable answer is already resolved; for the
// research route Arguments carries the question handed to the backend.
type RoutingDecision struct {
	Route     RouteKind
	Tool      string
	Arguments string
	Answer    string

	// Rounds is how many reasoning rounds the decision took.
	Rounds int
	// Fallback marks a locally substituted decision after an unusable
	// adapter response; FallbackCause names what went wrong.
	Fallback      bool
	FallbackCause string
}

type router struct {
	reasoner  ReasoningBackend
	tools     []reasoners.Tool
	maxRounds int
	emit      eventEmitter
}

func (r *router) runTool(queryID string, call reasoners.ToolCall) (string, error) {
	tool, ok := r.findTool(call.Name)
	if !ok {
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}

	r.emit(events.NewToolCallStarted(queryID, call.Name, call.Arguments))
	result, err := tool.Execute(call.Arguments)
	if err != nil {
		r.emit(events.NewToolCallFailed(queryID, call.Name, err.Error()))
		return "", fmt.Errorf("tool %q failed: %w", call.Name, err)
	}
	r.emit(events.NewToolCallCompleted(queryID, call.Name, result))
	return result, nil
}

// route produces the routing decision for a query: it consults the heuristic
// pre-router, optionally refines ambiguous queries with a structured
// classification call, then runs a bounded tool-calling loop against the
// declared catalog. Adapter misbehavior (unknown tool, malformed arguments,
// round exhaustion) degrades to an apologetic direct answer, never an error.
func (r *router) route(ctx context.Context, query Query) RoutingDecision {
	ctx, span := tracer.Start(ctx, "route query")
	defer span.End()

	hint := heuristicRoute(query.Text)
	span.SetAttributes(attribute.String("routing.hint", string(hint)))

	if hint == hintResearch {
		// Fast path, no reasoning round needed.
		return RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text}
	}
	if hint == hintNone {
		if class := r.classify(ctx, query.Text); class != nil {
			span.SetAttributes(
				attribute.String("routing.classified", class.Category),
				attribute.Float64("routing.confidence", class.Confidence),
			)
			if class.Category == "research" && class.Confidence >= 0.7 {
				return RoutingDecision{Route: RouteResearchBackend, Arguments: query.Text}
			}
		}
	}

	if r.reasoner == nil {
		return r.fallback(span, 0, "no reasoning backend configured")
	}

	catalog := append(slices.Clone(r.tools), researchTool())
	messages := []reasoners.Message{}
	prompt := query.Text

	for round := 1; round <= r.maxRounds; round++ {
		response, err := r.reasoner.Complete(ctx, prompt,
			reasoners.WithSystemPrompt(routingInstructions(hint)),
			reasoners.WithMessages(messages...),
			reasoners.WithTools(catalog...),
		)
		if err != nil {
			return r.fallback(span, round, fmt.Sprintf("reasoning backend failed: %v", err))
		}

		if prompt != "" {
			messages = append(messages, reasoners.Message{
				Role:    reasoners.MessageRoleUser,
				Content: prompt,
			})
			prompt = ""
		}

		if len(response.ToolCalls) == 0 {
			answer := strings.TrimSpace(response.Content)
			if answer == "" {
				return r.fallback(span, round, "empty adapter response")
			}
			return RoutingDecision{Route: RouteDirectAnswer, Answer: answer, Rounds: round}
		}

		for _, call := range response.ToolCalls {
			if call.Name == researchToolName {
				return RoutingDecision{
					Route:     RouteResearchBackend,
					Arguments: researchQuestion(call.Arguments, query.Text),
					Rounds:    round,
				}
			}
		}

		if len(response.ToolCalls) == 1 {
			call := response.ToolCalls[0]
			result, err := r.runTool(query.ID, call)
			if err != nil {
				return r.fallback(span, round, err.Error())
			}
			return RoutingDecision{
				Route:  RouteQuickTool,
				Tool:   call.Name,
				Answer: result,
				Rounds: round,
			}
		}

		// The adapter chained several tools: execute them all, feed the
		// results back and let it conclude in a later round.
		messages = append(messages, reasoners.Message{
			Role:      reasoners.MessageRoleAssistant,
			ToolCalls: response.ToolCalls,
		})
		for _, call := range response.ToolCalls {
			result, err := r.runTool(query.ID, call)
			if err != nil {
				return r.fallback(span, round, err.Error())
			}
			messages = append(messages, reasoners.Message{
				Role:       reasoners.MessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return r.fallback(span, r.maxRounds, "tool-call round limit exceeded")
}

// fallback substitutes an apologetic direct answer for an unusable adapter
// outcome. The technical cause stays in the span and logs; the user only
// ever hears the apology.
func (r *router) fallback(span trace.Span, rounds int, cause string) RoutingDecision {
	err := fmt.Errorf("routing fallback: %s", cause)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Warn("falling back to direct answer", "cause", cause, "rounds", rounds)

	return RoutingDecision{
		Route:         RouteDirectAnswer,
		Answer:        fallbackAnswerText,
		Rounds:        rounds,
		Fallback:      true,
		FallbackCause: cause,
	}
}

func (r *router) findTool(name string) (reasoners.Tool, bool) {
	for _, tool := range r.tools {
		if tool.Function.Name == name {
			return tool, true
		}
	}
	return reasoners.Tool{}, false
}

// routeHint is the heuristic pre-router's guess, used to skip reasoning
// rounds for obvious research queries and to steer the routing prompt.
type routeHint string

const (
	hintNone     routeHint = "none"
	hintTime     routeHint = "time"
	hintWeather  routeHint = "weather"
	hintCalc     routeHint = "calculation"
	hintResearch routeHint = "research"
)

var (
	researchPattern = regexp.MustCompile(`(?i)\b(research|compare|analy[sz]e|investigate|in depth|deep dive|comprehensive|find out everything)\b`)
	timePattern     = regexp.MustCompile(`(?i)\b(what time|current time|the time|what day|today's date)\b`)
	weatherPattern  = regexp.MustCompile(`(?i)\b(weather|temperature|forecast|raining|sunny|humid)\b`)
	calcPattern     = regexp.MustCompile(`(?i)(\d+\s*[-+*/^]\s*\d+|\b(calculate|compute|plus|minus|times|divided by)\b)`)
)

func heuristicRoute(text string) routeHint {
	switch {
	case researchPattern.MatchString(text):
		return hintResearch
	case timePattern.MatchString(text):
		return hintTime
	case weatherPattern.MatchString(text):
		return hintWeather
	case calcPattern.MatchString(text):
		return hintCalc
	}
	return hintNone
}

func routingInstructions(hint routeHint) string {
	instructions := "You are a voice assistant. Answer in one or two short spoken sentences. " +
		"Use the declared tools for time, weather, calculations and action confirmations. " +
		"Delegate questions that need in-depth research, comparison or analysis to consult_crew. " +
		"Never answer with technical detail, markdown or lists."
	if hint != hintNone {
		instructions += fmt.Sprintf(" The query looks like a %s request.", hint)
	}
	return instructions
}

// structuredReasoner is implemented by reasoning backends that can answer
// with schema-constrained JSON, like the groq client.
type structuredReasoner interface {
	CompleteStructured(ctx context.Context, prompt, schemaName string, schema *jsonschema.Schema, opts ...reasoners.PromptOption) (json.RawMessage, error)
}

type routeClassification struct {
	Category   string  `json:"category" jsonschema:"title=Category,enum=quick,enum=research,enum=chat"`
	Confidence float64 `json:"confidence" jsonschema:"title=Confidence,description=Confidence in the chosen category between 0 and 1"`
}

// classify refines queries the heuristic could not place. Best-effort: any
// failure just leaves the hint unresolved.
func (r *router) classify(ctx context.Context, text string) *routeClassification {
	structured, ok := r.reasoner.(structuredReasoner)
	if !ok {
		return nil
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&routeClassification{})

	raw, err := structured.CompleteStructured(ctx,
		fmt.Sprintf("Classify this voice query as quick (answerable with a simple tool or one sentence), "+
			"research (needs multi-step research or analysis) or chat: %q", text),
		"route_classification", schema)
	if err != nil {
		logger.Warn("route classification failed", "error", err)
		return nil
	}

	var class routeClassification
	if err := json.Unmarshal(raw, &class); err != nil {
		logger.Warn("route classification unmarshalling failed", "error", err)
		return nil
	}
	return &class
}

// researchQuestion extracts the delegated question from consult_crew
// arguments, falling back to the raw query text.
func researchQuestion(arguments, fallback string) string {
	var parsed struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &parsed); err == nil && strings.TrimSpace(parsed.Query) != "" {
		return parsed.Query
	}
	return fallback
}
