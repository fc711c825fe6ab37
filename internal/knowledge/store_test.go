package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingQuerier captures Exec calls so the upsert arguments can be
// checked without a database.
type recordingQuerier struct {
	sqls []string
	args [][]any
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sqls = append(q.sqls, sql)
	q.args = append(q.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (q *recordingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (q *recordingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func testChunk(id string) Chunk {
	return Chunk{
		ID:         id,
		DocumentID: "doc",
		Content:    "content of " + id,
		Embedding:  make([]float32, VectorDimension),
	}
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []Chunk
		wantErr error
	}{
		{
			name:   "valid batch",
			chunks: []Chunk{testChunk("a"), testChunk("b")},
		},
		{
			name:    "empty id",
			chunks:  []Chunk{testChunk("")},
			wantErr: ErrEmptyID,
		},
		{
			name: "wrong dimension",
			chunks: []Chunk{{
				ID:        "a",
				Embedding: make([]float32, 3),
			}},
			wantErr: ErrDimension,
		},
		{
			name:    "duplicate id in one call",
			chunks:  []Chunk{testChunk("a"), testChunk("b"), testChunk("a")},
			wantErr: ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBatch(tt.chunks)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpsertChunk(t *testing.T) {
	q := &recordingQuerier{}
	c := testChunk("doc_0")
	c.Metadata = map[string]string{"source": "doc.txt"}

	if err := upsertChunk(context.Background(), q, c); err != nil {
		t.Fatalf("upsertChunk: %v", err)
	}

	if len(q.sqls) != 1 || q.sqls[0] != upsertChunkSQL {
		t.Fatalf("sql = %v", q.sqls)
	}
	args := q.args[0]
	if len(args) != 5 {
		t.Fatalf("got %d args, want 5", len(args))
	}
	if args[0] != "doc_0" || args[1] != "doc" || args[2] != "content of doc_0" {
		t.Errorf("args = %v", args[:3])
	}
	if meta, ok := args[3].([]byte); !ok || !strings.Contains(string(meta), `"source":"doc.txt"`) {
		t.Errorf("metadata arg = %v", args[3])
	}
}

func TestMarshalMetadata(t *testing.T) {
	b, err := marshalMetadata(nil)
	if err != nil {
		t.Fatalf("marshalMetadata(nil): %v", err)
	}
	if string(b) != `{}` {
		t.Errorf("nil metadata = %s, want {}", b)
	}

	b, err = marshalMetadata(map[string]string{"source": "notes.pdf"})
	if err != nil {
		t.Fatalf("marshalMetadata: %v", err)
	}
	if !strings.Contains(string(b), `"source":"notes.pdf"`) {
		t.Errorf("metadata = %s", b)
	}
}

func TestUnmarshalMetadata(t *testing.T) {
	m, err := unmarshalMetadata([]byte(`{"source":"a.txt"}`))
	if err != nil {
		t.Fatalf("unmarshalMetadata: %v", err)
	}
	if m["source"] != "a.txt" {
		t.Errorf("m = %v", m)
	}

	for _, raw := range [][]byte{nil, []byte(`{}`)} {
		m, err := unmarshalMetadata(raw)
		if err != nil {
			t.Fatalf("unmarshalMetadata(%q): %v", raw, err)
		}
		if m != nil {
			t.Errorf("unmarshalMetadata(%q) = %v, want nil", raw, m)
		}
	}

	if _, err := unmarshalMetadata([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
