package events

const (
	// KindResearchStarted identifies research backend handoff.
	KindResearchStarted Kind = "research.started"
	// KindResearchProgress identifies a research progress report.
	KindResearchProgress Kind = "research.progress"
	// KindResearchCompleted identifies the research backend's final answer.
	KindResearchCompleted Kind = "research.completed"
	// KindResearchFailed identifies research backend failure or hard timeout.
	KindResearchFailed Kind = "research.failed"
)

// ResearchStarted marks handoff of a query to the research backend.
type ResearchStarted struct {
	Base
	QueryID string
}

// NewResearchStarted creates a research started event.
func NewResearchStarted(queryID string) ResearchStarted {
	return ResearchStarted{Base: NewBase(KindResearchStarted), QueryID: queryID}
}

// ResearchProgress marks a backend phase report with a monotonic sequence
// number.
type ResearchProgress struct {
	Base
	QueryID  string
	Phase    string
	Sequence int
}

// NewResearchProgress creates a research progress event.
func NewResearchProgress(queryID, phase string, sequence int) ResearchProgress {
	return ResearchProgress{Base: NewBase(KindResearchProgress), QueryID: queryID, Phase: phase, Sequence: sequence}
}

// ResearchCompleted marks the backend's final answer for a query.
type ResearchCompleted struct {
	Base
	QueryID string
	Answer  string
}

// NewResearchCompleted creates a research completed event.
func NewResearchCompleted(queryID, answer string) ResearchCompleted {
	return ResearchCompleted{Base: NewBase(KindResearchCompleted), QueryID: queryID, Answer: answer}
}

// ResearchFailed marks research backend failure or hard timeout.
type ResearchFailed struct {
	Base
	QueryID string
	Error   string
}

// NewResearchFailed creates a research failed event.
func NewResearchFailed(queryID, err string) ResearchFailed {
	return ResearchFailed{Base: NewBase(KindResearchFailed), QueryID: queryID, Error: err}
}
