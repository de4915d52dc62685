package reasoners

// PromptOptions contains all the options for a single reasoning backend call.
type PromptOptions struct {
	Instructions    string
	Messages        []Message
	Tools           []Tool
	ForcedToolsCall bool
	Stream          func(string)
}

// PromptOption is a function that can be used to modify the prompt options.
type PromptOption func(*PromptOptions)

// WithSystemPrompt sets the system prompt for the call.
// Repeating this option will overwrite the previous system prompt.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithMessages adds passed messages to the call.
// Repeating this option will sequentially add more messages.
func WithMessages(messages ...Message) PromptOption {
	return func(opts *PromptOptions) {
		opts.Messages = append(opts.Messages, messages...)
	}
}

// WithTools adds tools to the declared catalog for the call.
func WithTools(tools ...Tool) PromptOption {
	return func(opts *PromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
	}
}

// WithForcedTools forces the backend to respond with a tool call. Note that
// any tool in the catalog can be used, not just the ones passed into this
// option.
func WithForcedTools(tools ...Tool) PromptOption {
	return func(opts *PromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
		opts.ForcedToolsCall = true
	}
}

// WithStream sets the stream callback for response text chunks. Backends
// without streaming support call it once with the full content.
func WithStream(stream func(string)) PromptOption {
	return func(opts *PromptOptions) {
		opts.Stream = stream
	}
}
