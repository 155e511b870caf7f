package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// PostgresStore keeps chunk embeddings in a pgvector column next to the
// document metadata, so batch inserts are transactional and deletes
// cascade from the documents table.
type PostgresStore struct {
	db         *sql.DB
	dimensions int
}

func NewPostgresStore(db *sql.DB, dimensions int) *PostgresStore {
	return &PostgresStore{db: db, dimensions: dimensions}
}

func (s *PostgresStore) InsertChunks(ctx context.Context, documentID int64, chunks []ChunkInsert) error {
	for _, c := range chunks {
		if len(c.Embedding) != s.dimensions {
			return fmt.Errorf("%w: embedding has %d dimensions, want %d", ErrStorage, len(c.Embedding), s.dimensions)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}

	query := `INSERT INTO document_chunks (document_id, content, embedding, metadata) VALUES ($1, $2, $3, $4)`
	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: marshal metadata: %v", ErrStorage, err)
		}
		if _, err := tx.ExecContext(ctx, query, documentID, c.Content, pgvector.NewVector(c.Embedding), meta); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: insert chunk: %v", ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, embedding []float32, k int) ([]SearchResult, error) {
	if len(embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: query embedding has %d dimensions, want %d", ErrStorage, len(embedding), s.dimensions)
	}
	if k < 1 {
		k = 1
	}

	// Secondary sort on id keeps equal-distance results in insertion order.
	query := `SELECT dc.id, dc.document_id, dc.content, dc.metadata, d.original_name,
       1 - (dc.embedding <=> $1) AS similarity
FROM document_chunks dc
JOIN documents d ON dc.document_id = d.id
WHERE d.status = 'completed'
ORDER BY dc.embedding <=> $1, dc.id
LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrStorage, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var meta []byte
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Content, &meta, &r.Filename, &r.Similarity); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStorage, err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &r.Metadata); err != nil {
				return nil, fmt.Errorf("%w: metadata: %v", ErrStorage, err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrStorage, err)
	}
	return results, nil
}

func (s *PostgresStore) DeleteByDocument(ctx context.Context, documentID int64) error {
	// The FK cascade covers deletion through the documents table; this
	// explicit path keeps the contract identical across backends.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("%w: delete chunks: %v", ErrStorage, err)
	}
	return nil
}
