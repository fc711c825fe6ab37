// Package testutil provides shared test doubles, most importantly a
// scriptable language-model client.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/valet-ai/valet/internal/knowledge"
	"github.com/valet-ai/valet/internal/llm"
)

// ChatCall records one Chat invocation.
type ChatCall struct {
	Messages   []llm.Message
	Tools      []llm.ToolDescriptor
	ToolChoice string
}

// MockLLM implements llm.Client with scripted chat replies and
// deterministic embeddings. Replies are consumed in order; when the
// script runs out, Chat returns a fixed fallback reply.
//
// MockLLM is safe for concurrent use by multiple goroutines.
type MockLLM struct {
	mu        sync.Mutex
	replies   []*llm.Reply
	chatErr   error
	embedErr  error
	ChatCalls []ChatCall
	Embedded  [][]string
}

// NewMockLLM creates a MockLLM scripted with the given replies.
func NewMockLLM(replies ...*llm.Reply) *MockLLM {
	return &MockLLM{replies: replies}
}

// FailChat makes every subsequent Chat call return err.
func (m *MockLLM) FailChat(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatErr = err
}

// FailEmbed makes every subsequent Embed call return an embedding error
// wrapping err.
func (m *MockLLM) FailEmbed(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedErr = err
}

// Chat pops the next scripted reply.
func (m *MockLLM) Chat(_ context.Context, messages []llm.Message, tools []llm.ToolDescriptor, toolChoice string) (*llm.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatCalls = append(m.ChatCalls, ChatCall{
		Messages:   append([]llm.Message(nil), messages...),
		Tools:      tools,
		ToolChoice: toolChoice,
	})
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	if len(m.replies) == 0 {
		return &llm.Reply{Content: "mock reply"}, nil
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

// Embed returns one deterministic vector per input, derived from the
// text's SHA-256 digest, so equal texts always embed equally.
func (m *MockLLM) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Embedded = append(m.Embedded, append([]string(nil), texts...))
	if m.embedErr != nil {
		return nil, &llm.EmbeddingError{Err: m.embedErr}
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = DeterministicVector(text)
	}
	return vectors, nil
}

// DeterministicVector derives a stable embedding vector from text.
func DeterministicVector(text string) []float32 {
	digest := sha256.Sum256([]byte(text))
	v := make([]float32, knowledge.VectorDimension)
	for i := range v {
		word := binary.BigEndian.Uint32(digest[(i*4)%len(digest):][:4])
		v[i] = float32(word%1000)/1000 - 0.5
	}
	return v
}

// TextReply scripts a plain text reply.
func TextReply(content string) *llm.Reply {
	return &llm.Reply{Content: content}
}

// ToolCallReply scripts a reply requesting the given tool calls.
func ToolCallReply(calls ...llm.ToolCall) *llm.Reply {
	return &llm.Reply{ToolCalls: calls}
}

// Call builds a tool call with a generated id.
func Call(name, arguments string) llm.ToolCall {
	digest := sha256.Sum256([]byte(name + arguments))
	return llm.ToolCall{
		ID:        fmt.Sprintf("call_%s_%x", name, digest[:4]),
		Name:      name,
		Arguments: arguments,
	}
}
