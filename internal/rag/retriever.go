package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/valet-ai/valet/internal/knowledge"
)

// DefaultTopK is how many chunks a search returns when unspecified.
const DefaultTopK = 5

// searchStore is the slice of the knowledge store the retriever needs.
type searchStore interface {
	Query(ctx context.Context, vector []float32, k int) ([]knowledge.Result, error)
	Count(ctx context.Context) (int, error)
}

// Retriever answers similarity searches over the chunk index.
type Retriever struct {
	store    searchStore
	embedder embedder
	logger   *slog.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(store searchStore, emb embedder, logger *slog.Logger) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if emb == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: store, embedder: emb, logger: logger}, nil
}

// Search embeds the query and returns the topK nearest chunks, closest
// first. An empty index short-circuits to no results without calling
// the embedder.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]knowledge.Result, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	n, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking index size: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected one query vector, got %d", len(vectors))
	}

	results, err := r.store.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	r.logger.Debug("search complete", "query_len", len(query), "results", len(results))
	return results, nil
}

// searchHit is the JSON shape SearchJSON emits per result.
type searchHit struct {
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Distance   float64           `json:"distance"`
}

// SearchJSON runs Search and renders the hits as a JSON array string,
// for handing results back to the model as a tool payload.
func (r *Retriever) SearchJSON(ctx context.Context, query string, topK int) (string, error) {
	results, err := r.Search(ctx, query, topK)
	if err != nil {
		return "", err
	}

	hits := make([]searchHit, len(results))
	for i, res := range results {
		hits[i] = searchHit{
			DocumentID: res.Chunk.DocumentID,
			Content:    res.Chunk.Content,
			Metadata:   res.Chunk.Metadata,
			Distance:   res.Distance,
		}
	}
	out, err := json.Marshal(hits)
	if err != nil {
		return "", fmt.Errorf("encoding results: %w", err)
	}
	return string(out), nil
}
