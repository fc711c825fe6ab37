package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valet-ai/valet/internal/knowledge"
	"github.com/valet-ai/valet/internal/log"
)

type fakeStore struct {
	chunks     map[string][]knowledge.Chunk // by document id
	addErr     error
	deleteErr  error
	addCalls   int
	deleted    []string
	addedAfter []string // document ids deleted before the matching add
}

func newFakeStore() *fakeStore {
	return &fakeStore{chunks: make(map[string][]knowledge.Chunk)}
}

func (s *fakeStore) Add(_ context.Context, chunks []knowledge.Chunk) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.addCalls++
	for _, c := range chunks {
		s.chunks[c.DocumentID] = append(s.chunks[c.DocumentID], c)
	}
	return nil
}

func (s *fakeStore) DeleteDocument(_ context.Context, documentID string) (int, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	s.deleted = append(s.deleted, documentID)
	n := len(s.chunks[documentID])
	delete(s.chunks, documentID)
	return n, nil
}

func (s *fakeStore) ListDocuments(_ context.Context) ([]knowledge.DocumentInfo, error) {
	var docs []knowledge.DocumentInfo
	for id, cs := range s.chunks {
		docs = append(docs, knowledge.DocumentInfo{DocumentID: id, ChunkCount: len(cs)})
	}
	return docs, nil
}

func (s *fakeStore) Query(context.Context, []float32, int) ([]knowledge.Result, error) {
	return nil, nil
}

func (s *fakeStore) Count(context.Context) (int, error) {
	var n int
	for _, cs := range s.chunks {
		n += len(cs)
	}
	return n, nil
}

type fakeEmbedder struct {
	calls int
	texts [][]string
	err   error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts = append(e.texts, texts)
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, knowledge.VectorDimension)
		vectors[i][0] = float32(i + 1)
	}
	return vectors, nil
}

func newTestIndexer(t *testing.T, store *fakeStore, emb *fakeEmbedder) *Indexer {
	t.Helper()

	ix, err := NewIndexer(store, emb, NewExtractor(log.NewNop()),
		NewChunker(DefaultChunkSize, DefaultChunkOverlap), log.NewNop())
	if err != nil {
		t.Fatalf("NewIndexer: %v", err)
	}
	return ix
}

func TestIngestFile(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}
	ix := newTestIndexer(t, store, emb)

	path := writeFile(t, "meeting notes.txt", strings.Repeat("a", 2000))
	res, err := ix.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	if res.DocumentID != "meeting_notes" {
		t.Errorf("document id = %q", res.DocumentID)
	}
	if res.Chunks != 3 {
		t.Errorf("chunks = %d, want 3", res.Chunks)
	}

	stored := store.chunks["meeting_notes"]
	if len(stored) != 3 {
		t.Fatalf("stored %d chunks, want 3", len(stored))
	}
	if stored[0].ID != "meeting_notes_0" || stored[2].ID != "meeting_notes_2" {
		t.Errorf("chunk ids = %s .. %s", stored[0].ID, stored[2].ID)
	}
	if stored[0].Metadata["source"] != "meeting notes.txt" {
		t.Errorf("metadata = %v", stored[0].Metadata)
	}
	if stored[0].Metadata["chunk_index"] != "0" || stored[2].Metadata["chunk_index"] != "2" {
		t.Errorf("chunk_index metadata = %q .. %q",
			stored[0].Metadata["chunk_index"], stored[2].Metadata["chunk_index"])
	}
	if stored[1].Embedding[0] != 2 {
		t.Errorf("embeddings not aligned with segments")
	}
	if emb.calls != 1 {
		t.Errorf("embedder called %d times, want 1", emb.calls)
	}
}

func TestIngestFile_ReplacesPriorChunks(t *testing.T) {
	store := newFakeStore()
	store.chunks["notes"] = []knowledge.Chunk{
		{ID: "notes_0", DocumentID: "notes"},
		{ID: "notes_1", DocumentID: "notes"},
	}
	ix := newTestIndexer(t, store, &fakeEmbedder{})

	path := writeFile(t, "notes.txt", "fresh content")
	res, err := ix.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	if res.Replaced != 2 {
		t.Errorf("replaced = %d, want 2", res.Replaced)
	}
	if len(store.chunks["notes"]) != 1 {
		t.Errorf("stored %d chunks, want 1", len(store.chunks["notes"]))
	}
	if len(store.deleted) != 1 || store.deleted[0] != "notes" {
		t.Errorf("deleted = %v", store.deleted)
	}
}

func TestIngestFile_EmbedFailureWritesNothing(t *testing.T) {
	store := newFakeStore()
	store.chunks["notes"] = []knowledge.Chunk{{ID: "notes_0", DocumentID: "notes"}}
	ix := newTestIndexer(t, store, &fakeEmbedder{err: errors.New("quota exceeded")})

	path := writeFile(t, "notes.txt", "new content")
	if _, err := ix.IngestFile(context.Background(), path); err == nil {
		t.Fatal("expected error")
	}

	if len(store.deleted) != 0 {
		t.Errorf("prior chunks were deleted: %v", store.deleted)
	}
	if len(store.chunks["notes"]) != 1 {
		t.Errorf("existing index was modified")
	}
	if store.addCalls != 0 {
		t.Errorf("Add called %d times, want 0", store.addCalls)
	}
}

func TestIngestFile_EmptyDocumentFails(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}
	ix := newTestIndexer(t, store, emb)

	path := writeFile(t, "empty.txt", "   \n  ")
	_, err := ix.IngestFile(context.Background(), path)
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("err = %v, want ErrNoContent", err)
	}

	if emb.calls != 0 {
		t.Errorf("embedder called %d times, want 0", emb.calls)
	}
	if store.addCalls != 0 {
		t.Errorf("Add called %d times, want 0", store.addCalls)
	}
	if len(store.deleted) != 0 {
		t.Errorf("prior chunks were deleted: %v", store.deleted)
	}
}

func TestIngestDir(t *testing.T) {
	store := newFakeStore()
	ix := newTestIndexer(t, store, &fakeEmbedder{})

	dir := t.TempDir()
	files := map[string]string{
		"a.txt":     "alpha content",
		"b.md":      "beta content",
		"skip.png":  "binary",
		"empty.txt": "",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	results, err := ix.IngestDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDir: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if len(store.chunks) != 2 {
		t.Errorf("stored %d documents, want 2", len(store.chunks))
	}
}

func TestDocumentID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"notes.txt", "notes"},
		{"/data/docs/Quarterly Report.pdf", "Quarterly_Report"},
		{"weird!name@2024.md", "weird_name_2024"},
		{"already_clean-name.docx", "already_clean-name"},
		{strings.Repeat("x", 120) + ".txt", strings.Repeat("x", 80)},
		{".txt", "doc"},
	}
	for _, tt := range tests {
		if got := DocumentID(tt.path); got != tt.want {
			t.Errorf("DocumentID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
