package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// chunkCols is the standard SELECT column list for scanChunks.
const chunkCols = `id, document_id, content, metadata, embedding`

const upsertChunkSQL = `INSERT INTO chunks (id, document_id, content, metadata, embedding)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		document_id = EXCLUDED.document_id,
		content = EXCLUDED.content,
		metadata = EXCLUDED.metadata,
		embedding = EXCLUDED.embedding`

// Store persists chunks in PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a chunk Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Add upserts the given chunks in one transaction. A chunk whose id
// already exists in the table is replaced. Two chunks with the same id
// inside a single call are rejected before anything is written.
func (s *Store) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := validateBatch(chunks); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range chunks {
		if err := upsertChunk(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("chunks stored", "count", len(chunks))
	return nil
}

// Query returns the k nearest chunks to the given vector by cosine
// distance, closest first.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidLimit
	}
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(vector), VectorDimension)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s, embedding <=> $1 AS distance
		FROM chunks
		ORDER BY distance
		LIMIT $2`, chunkCols),
		pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r    Result
			vec  pgvector.Vector
			meta []byte
		)
		err := rows.Scan(&r.Chunk.ID, &r.Chunk.DocumentID, &r.Chunk.Content,
			&meta, &vec, &r.Distance)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		r.Chunk.Embedding = vec.Slice()
		if r.Chunk.Metadata, err = unmarshalMetadata(meta); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", r.Chunk.ID, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	return results, nil
}

// Count reports the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Delete removes the chunk with the given id. Deleting an id that does
// not exist is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting chunk %s: %w", id, err)
	}
	return nil
}

// DeleteDocument removes every chunk belonging to the given document and
// reports how many were removed.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	if documentID == "" {
		return 0, ErrEmptyID
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return int(tag.RowsAffected()), nil
}

// ListDocuments returns the indexed documents with their chunk counts,
// ordered by document id.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document_id, count(*) FROM chunks GROUP BY document_id ORDER BY document_id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.DocumentID, &d.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	return docs, nil
}

// upsertChunk writes one chunk through q, which is the enclosing
// transaction during Add.
func upsertChunk(ctx context.Context, q querier, c Chunk) error {
	meta, err := marshalMetadata(c.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", c.ID, err)
	}
	_, err = q.Exec(ctx, upsertChunkSQL,
		c.ID, c.DocumentID, c.Content, meta, pgvector.NewVector(c.Embedding))
	if err != nil {
		return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
	}
	return nil
}

// validateBatch rejects empty ids, wrong-size embeddings, and ids that
// repeat inside one call.
func validateBatch(chunks []Chunk) error {
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if c.ID == "" {
			return ErrEmptyID
		}
		if len(c.Embedding) != VectorDimension {
			return fmt.Errorf("%w: chunk %s has %d, want %d",
				ErrDimension, c.ID, len(c.Embedding), VectorDimension)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return []byte(`{}`), nil
	}
	return json.Marshal(m)
}

func unmarshalMetadata(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
