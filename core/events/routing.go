package events

const (
	// KindRoutingDecided identifies a usable routing decision.
	KindRoutingDecided Kind = "routing.decided"
	// KindRoutingFallback identifies a locally substituted routing outcome.
	KindRoutingFallback Kind = "routing.fallback"
)

// RoutingDecided marks a usable routing decision for a query.
type RoutingDecided struct {
	Base
	QueryID string
	Route   string
	Tool    string
	Rounds  int
}

// NewRoutingDecided creates a routing decided event.
func NewRoutingDecided(queryID, route, tool string, rounds int) RoutingDecided {
	return RoutingDecided{Base: NewBase(KindRoutingDecided), QueryID: queryID, Route: route, Tool: tool, Rounds: rounds}
}

// RoutingFallback marks a locally substituted routing outcome after an
// unusable adapter response.
type RoutingFallback struct {
	Base
	QueryID string
	Cause   string
}

// NewRoutingFallback creates a routing fallback event.
func NewRoutingFallback(queryID, cause string) RoutingFallback {
	return RoutingFallback{Base: NewBase(KindRoutingFallback), QueryID: queryID, Cause: cause}
}
