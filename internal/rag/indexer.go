package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/valet-ai/valet/internal/knowledge"
)

// maxDocumentIDLen caps sanitized document ids.
const maxDocumentIDLen = 80

// ErrNoContent reports a document that yielded no text to index, either
// because the file is empty or because extraction produced nothing.
var ErrNoContent = errors.New("no text extracted from document")

// chunkStore is the slice of the knowledge store the indexer needs.
type chunkStore interface {
	Add(ctx context.Context, chunks []knowledge.Chunk) error
	DeleteDocument(ctx context.Context, documentID string) (int, error)
	ListDocuments(ctx context.Context) ([]knowledge.DocumentInfo, error)
}

// embedder converts texts into vectors, all-or-nothing.
type embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestResult reports what one ingestion did.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Replaced   int    `json:"replaced"`
}

// Indexer ingests document files into the knowledge store.
type Indexer struct {
	store     chunkStore
	embedder  embedder
	extractor *Extractor
	chunker   *Chunker
	logger    *slog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(store chunkStore, emb embedder, extractor *Extractor, chunker *Chunker, logger *slog.Logger) (*Indexer, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if emb == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if extractor == nil {
		extractor = NewExtractor(logger)
	}
	if chunker == nil {
		chunker = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:     store,
		embedder:  emb,
		extractor: extractor,
		chunker:   chunker,
		logger:    logger,
	}, nil
}

// IngestFile extracts, chunks, embeds, and stores the file at path.
// Re-ingesting a file replaces every chunk previously stored for its
// document id. Embedding is all-or-nothing: on failure nothing is
// written and the existing index is untouched. A document that yields
// no text fails with ErrNoContent.
func (ix *Indexer) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	docID := DocumentID(path)

	text, err := ix.extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	segments := ix.chunker.Split(text)
	if len(segments) == 0 {
		ix.logger.Warn("document produced no chunks", "path", path, "document_id", docID)
		return nil, fmt.Errorf("%w: %s", ErrNoContent, path)
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", docID, err)
	}

	chunks := make([]knowledge.Chunk, len(segments))
	for i, s := range segments {
		chunks[i] = knowledge.Chunk{
			ID:         fmt.Sprintf("%s_%d", docID, s.Index),
			DocumentID: docID,
			Content:    s.Text,
			Metadata: map[string]string{
				"source":      filepath.Base(path),
				"chunk_index": strconv.Itoa(s.Index),
			},
			Embedding:  vectors[i],
		}
	}

	replaced, err := ix.store.DeleteDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("replacing %s: %w", docID, err)
	}
	if err := ix.store.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("storing %s: %w", docID, err)
	}

	ix.logger.Info("document ingested",
		"document_id", docID, "chunks", len(chunks), "replaced", replaced)
	return &IngestResult{DocumentID: docID, Chunks: len(chunks), Replaced: replaced}, nil
}

// IngestDir ingests every supported file directly inside dir, skipping
// the rest. Failures are logged and do not stop the walk.
func (ix *Indexer) IngestDir(ctx context.Context, dir string) ([]IngestResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var results []IngestResult
	for _, p := range paths {
		if !ix.extractor.Supported(p) {
			continue
		}
		res, err := ix.IngestFile(ctx, p)
		if err != nil {
			ix.logger.Error("ingestion failed", "path", p, "error", err)
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// RemoveDocument deletes every chunk of the given document and reports
// how many were removed.
func (ix *Indexer) RemoveDocument(ctx context.Context, documentID string) (int, error) {
	return ix.store.DeleteDocument(ctx, documentID)
}

// Documents lists the indexed documents.
func (ix *Indexer) Documents(ctx context.Context) ([]knowledge.DocumentInfo, error) {
	return ix.store.ListDocuments(ctx)
}

// DocumentID derives the stable id for a file path: the file name
// without extension, non [A-Za-z0-9_-] bytes replaced by underscores,
// truncated to 80 characters. A name with no usable characters maps
// to "doc".
func DocumentID(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var sb strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	id := sb.String()
	if len(id) > maxDocumentIDLen {
		id = id[:maxDocumentIDLen]
	}
	if id == "" {
		return "doc"
	}
	return id
}
