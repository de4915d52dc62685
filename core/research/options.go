package research

// ProgressEvent is a backend phase report emitted while a query is being
// processed. Sequence numbers are strictly increasing within one query.
type ProgressEvent struct {
	Phase    string
	Sequence int
}

type ProcessOptions struct {
	// ProgressCallback is called for each phase report, in sequence order.
	ProgressCallback func(ProgressEvent)
	// AnswerCallback is called exactly once with the final answer, unless the
	// backend fails first.
	AnswerCallback func(answer string)
	// FailureCallback is called exactly once if the backend reports failure.
	// AnswerCallback and FailureCallback are mutually exclusive.
	FailureCallback func(err error)

	// Context is optional additional context about what the user is trying
	// to accomplish.
	Context string
}

type ProcessOption func(*ProcessOptions)

func WithProgressCallback(callback func(ProgressEvent)) ProcessOption {
	return func(o *ProcessOptions) {
		o.ProgressCallback = callback
	}
}

func WithAnswerCallback(callback func(answer string)) ProcessOption {
	return func(o *ProcessOptions) {
		o.AnswerCallback = callback
	}
}

func WithFailureCallback(callback func(err error)) ProcessOption {
	return func(o *ProcessOptions) {
		o.FailureCallback = callback
	}
}

// WithContext attaches additional user context to the query.
func WithContext(context string) ProcessOption {
	return func(o *ProcessOptions) {
		o.Context = context
	}
}
