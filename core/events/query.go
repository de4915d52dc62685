package events

const (
	// KindQueryReceived identifies a transcribed query entering the session.
	KindQueryReceived Kind = "query.received"
	// KindQueryClosed identifies closure of a query's utterance stream.
	KindQueryClosed Kind = "query.closed"
)

// CloseReason describes why a query's utterance stream was closed.
type CloseReason string

const (
	CloseReasonAnswered  CloseReason = "answered"
	CloseReasonAbandoned CloseReason = "abandoned"
	CloseReasonFailed    CloseReason = "failed"
)

// QueryReceived marks a transcribed query entering the session.
type QueryReceived struct {
	Base
	QueryID string
	Text    string
}

// NewQueryReceived creates a query received event.
func NewQueryReceived(queryID, text string) QueryReceived {
	return QueryReceived{Base: NewBase(KindQueryReceived), QueryID: queryID, Text: text}
}

// QueryClosed marks closure of a query's utterance stream. After this event
// no utterance of any class is ever emitted for the query.
type QueryClosed struct {
	Base
	QueryID string
	Reason  CloseReason
}

// NewQueryClosed creates a query closed event.
func NewQueryClosed(queryID string, reason CloseReason) QueryClosed {
	return QueryClosed{Base: NewBase(KindQueryClosed), QueryID: queryID, Reason: reason}
}
