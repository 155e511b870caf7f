package document

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, doc *Document) error {
	query := `INSERT INTO documents (filename, original_name, mime_type, size, uploaded_by, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, uploaded_at`
	return r.db.QueryRowContext(ctx, query,
		doc.Filename, doc.OriginalName, doc.MimeType, doc.Size, doc.UploadedBy, doc.Status,
	).Scan(&doc.ID, &doc.UploadedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (*Document, error) {
	doc := &Document{}
	var errMsg sql.NullString
	var uploadedBy sql.NullString
	query := `SELECT id, filename, original_name, mime_type, size, uploaded_by, uploaded_at, status, error_message, chunk_count
		FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.Filename, &doc.OriginalName, &doc.MimeType, &doc.Size,
		&uploadedBy, &doc.UploadedAt, &doc.Status, &errMsg, &doc.ChunkCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.UploadedBy = uploadedBy.String
	doc.ErrorMessage = errMsg.String
	return doc, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Document, error) {
	query := `SELECT id, filename, original_name, mime_type, size, uploaded_by, uploaded_at, status, error_message, chunk_count
		FROM documents ORDER BY uploaded_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var errMsg sql.NullString
		var uploadedBy sql.NullString
		if err := rows.Scan(
			&doc.ID, &doc.Filename, &doc.OriginalName, &doc.MimeType, &doc.Size,
			&uploadedBy, &doc.UploadedAt, &doc.Status, &errMsg, &doc.ChunkCount,
		); err != nil {
			return nil, err
		}
		doc.UploadedBy = uploadedBy.String
		doc.ErrorMessage = errMsg.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id int64, status, errorMessage string, chunkCount int) error {
	query := `UPDATE documents SET status = $1, error_message = NULLIF($2, ''), chunk_count = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, errorMessage, chunkCount, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document row; document_chunks rows follow via the
// ON DELETE CASCADE constraint.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompletedDocumentIDs lists documents eligible for retrieval. The
// Weaviate backend filters searches against this set since it has no
// join onto the documents table.
func (r *PostgresRepo) CompletedDocumentIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM documents WHERE status = $1`, StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
