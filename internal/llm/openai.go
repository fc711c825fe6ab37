package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// openaiAPI is the slice of the provider SDK the client needs.
// Satisfied by *openai.Client and by test fakes.
type openaiAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAI implements Client against the OpenAI API.
type OpenAI struct {
	api            openaiAPI
	chatModel      string
	embeddingModel string
	limiter        *rate.Limiter
}

// OpenAIOption configures an OpenAI client.
type OpenAIOption func(*OpenAI)

// WithEmbedRateLimit caps embedding requests at rps per second with the
// given burst. Zero or negative rps disables the limit.
func WithEmbedRateLimit(rps float64, burst int) OpenAIOption {
	return func(c *OpenAI) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// withAPI swaps the underlying SDK client, for tests.
func withAPI(api openaiAPI) OpenAIOption {
	return func(c *OpenAI) {
		c.api = api
	}
}

// NewOpenAI builds a gateway client for the given API key and models.
func NewOpenAI(apiKey, chatModel, embeddingModel string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: api key is empty")
	}
	if chatModel == "" || embeddingModel == "" {
		return nil, fmt.Errorf("llm: model names must not be empty")
	}

	c := &OpenAI{
		api:            openai.NewClient(apiKey),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		limiter:        rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Chat sends the conversation to the chat completion endpoint and maps
// the first choice back into a Reply.
func (c *OpenAI) Chat(ctx context.Context, messages []Message, tools []ToolDescriptor, toolChoice string) (*Reply, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, toOpenAIMessage(m))
	}
	if len(tools) > 0 {
		req.Tools = make([]openai.Tool, 0, len(tools))
		for _, t := range tools {
			req.Tools = append(req.Tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		if toolChoice != "" {
			req.ToolChoice = toolChoice
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: response contains no choices")
	}

	msg := resp.Choices[0].Message
	reply := &Reply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}

// Embed converts texts to vectors in input order. Empty input returns an
// empty slice without an upstream call.
func (c *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &EmbeddingError{Err: err}
		}
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(resp.Data) != len(texts) {
		return nil, &EmbeddingError{
			Err: fmt.Errorf("expected %d vectors, got %d", len(texts), len(resp.Data)),
		}
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, &EmbeddingError{
				Err: fmt.Errorf("vector index %d out of range", d.Index),
			}
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, &EmbeddingError{
				Err: fmt.Errorf("missing vector for input %d", i),
			}
		}
		if len(v) != len(vectors[0]) {
			return nil, &EmbeddingError{
				Err: fmt.Errorf("inconsistent vector dimensions: %d and %d", len(vectors[0]), len(v)),
			}
		}
	}
	return vectors, nil
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       m.Role,
		ToolCallID: m.ToolCallID,
	}
	if m.Image != "" {
		out.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: m.Content},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: m.Image},
			},
		}
	} else {
		out.Content = m.Content
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return out
}
