// Package agent runs the conversation loop: it sends the user's message
// to the model with the registered tools, executes the tool calls the
// model asks for, and feeds the results back until the model produces a
// plain reply or the round budget runs out.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valet-ai/valet/internal/llm"
)

// DefaultMaxRounds bounds how many model turns one request may take.
const DefaultMaxRounds = 5

// DefaultSystemPrompt is used when no prompt is configured.
const DefaultSystemPrompt = "You are a helpful personal assistant. " +
	"Use the available tools when they help answer the user's request. " +
	"When you have searched the user's documents, ground your answer in what you found."

// toolExecutor runs tool calls and describes the available tools.
type toolExecutor interface {
	Execute(ctx context.Context, name, rawArgs string) string
	Descriptors() []llm.ToolDescriptor
}

// Result is the outcome of one processed message.
type Result struct {
	// Content is the assistant's reply. When Exhausted is set it is the
	// content of the last message in the sequence, usually a tool
	// result rather than a model answer.
	Content   string `json:"content"`
	Rounds    int    `json:"rounds"`
	ToolCalls int    `json:"tool_calls"`
	Exhausted bool   `json:"exhausted,omitempty"`
}

// Router drives the tool-calling conversation loop.
type Router struct {
	client       llm.Client
	tools        toolExecutor
	logger       *slog.Logger
	systemPrompt string
	maxRounds    int
}

// Option configures a Router.
type Option func(*Router)

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(r *Router) {
		if prompt != "" {
			r.systemPrompt = prompt
		}
	}
}

// WithMaxRounds overrides the round budget.
func WithMaxRounds(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxRounds = n
		}
	}
}

// NewRouter creates a Router.
func NewRouter(client llm.Client, tools toolExecutor, logger *slog.Logger, opts ...Option) (*Router, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if tools == nil {
		return nil, fmt.Errorf("tools are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		client:       client,
		tools:        tools,
		logger:       logger,
		systemPrompt: DefaultSystemPrompt,
		maxRounds:    DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Process answers one user message. History is prior conversation turns
// in order, oldest first; image, when non-empty, is a URL or raw base64
// image data attached to the message.
//
// The model is called at most maxRounds times. Each reply that requests
// tools gets every call executed in order, results appended under the
// matching call ids, and the grown conversation resent. A reply with no
// tool calls ends the loop. If the budget runs out, the last message's
// content is returned as a degraded answer with Exhausted set.
func (r *Router) Process(ctx context.Context, message string, history []llm.Message, image string) (*Result, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: r.systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, userMessage(message, image))

	descriptors := r.tools.Descriptors()
	result := &Result{}

	for round := 1; round <= r.maxRounds; round++ {
		result.Rounds = round

		reply, err := r.client.Chat(ctx, messages, descriptors, llm.ToolChoiceAuto)
		if err != nil {
			return nil, fmt.Errorf("model turn %d: %w", round, err)
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})

		if len(reply.ToolCalls) == 0 {
			result.Content = reply.Content
			return result, nil
		}
		for _, call := range reply.ToolCalls {
			r.logger.Info("tool call", "round", round, "tool", call.Name, "call_id", call.ID)
			output := r.tools.Execute(ctx, call.Name, call.Arguments)
			result.ToolCalls++
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	// Degraded fallback: whatever ended up last in the sequence, which
	// after a tool round is a tool result rather than a model answer.
	r.logger.Warn("round budget exhausted", "rounds", r.maxRounds, "tool_calls", result.ToolCalls)
	result.Content = messages[len(messages)-1].Content
	result.Exhausted = true
	return result, nil
}
