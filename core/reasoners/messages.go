package reasoners

// Response is a single response from a reasoning backend. A response carries
// assistant text, requested tool calls, or both.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolCall is a reasoning backend's request to invoke a named tool, and,
// once executed, the tool's response.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Response  string
}

// Message is a single message exchanged with a reasoning backend.
type Message struct {
	Role    MessageRole
	Content string

	ToolCalls []ToolCall

	// ToolCallID is set on tool-role messages and identifies the tool call
	// the content responds to.
	ToolCallID string
}

// MessageRole describes who a message is from.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)
