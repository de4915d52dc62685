package groq

import "github.com/aria-voice/aria-core/core/reasoners"

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type requestBody struct {
	Model      string    `json:"model"`
	Messages   []message `json:"messages"`
	Tools      []Tool    `json:"tools,omitempty"`
	ToolChoice *string   `json:"tool_choice,omitempty"`
}

type message struct {
	Role       messageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []toolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool is the wire representation of a declared tool. Field names mirror
// [reasoners.Tool] so the conversion can be done with a struct copy.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  parameters `json:"parameters"`
}

type parameters struct {
	Type       string                   `json:"type"`
	Properties map[string]parameterBase `json:"properties"`
	Required   []string                 `json:"required,omitempty"`
}

type parameterBase struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type responseBody struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

func toMessages(instructions string, history []reasoners.Message) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}

	for _, msg := range history {
		converted := message{
			Role:       messageRole(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, toolCall{
				ID:   call.ID,
				Type: "function",
				Function: toolCallFunction{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		messages = append(messages, converted)
	}

	return messages
}

func toResponse(msg message) *reasoners.Response {
	response := &reasoners.Response{Content: msg.Content}
	for _, call := range msg.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, reasoners.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return response
}
