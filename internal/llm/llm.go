// Package llm defines the narrow gateway contract to the language-model
// and embedding provider.
//
// The rest of the codebase depends only on the Client interface and the
// plain message/tool-call values defined here, never on a provider SDK's
// object shapes. Tool calls emitted by the model are re-expressed as
// ToolCall{ID, Name, Arguments} at this boundary.
package llm

import "context"

// Message roles in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Tool choice modes for Chat. Auto permits but does not force tool use.
const (
	ToolChoiceAuto = "auto"
	ToolChoiceNone = "none"
)

// ToolCall is a model's request to invoke a named tool.
// Arguments is the raw JSON argument payload exactly as the model emitted it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry in a conversation sequence.
//
// Image, when non-empty on a user message, is either a remote URL or a
// data URI with an inlined base64 payload; the provider client renders
// the message as a multi-part value containing both text and image.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Image      string     `json:"image,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolDescriptor declares one tool to the model: name, description, and a
// JSON-schema parameter definition serialized verbatim into the request.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  any
}

// Reply is the model's response to one Chat invocation.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// Client is the gateway to the language-model provider.
//
// Chat sends the full message sequence with the declared tools and returns
// the model's reply; it fails with a wrapped upstream error and is never
// retried here.
//
// Embed converts texts into fixed-length vectors, one per input in input
// order. It is all-or-nothing: any upstream fault yields a *EmbeddingError
// and no partial results. Empty input returns an empty result without
// calling upstream. All vectors from one client configuration have
// identical dimensionality.
type Client interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDescriptor, toolChoice string) (*Reply, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingError marks a failure of the embedding gateway, wrapping the
// upstream fault. Callers detect it with errors.As to report "embedding
// failed" without corrupting the index.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return "embedding failed: " + e.Err.Error()
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
