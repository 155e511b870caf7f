package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/madhusudhankonda/ifi-chatbot/internal/middleware"
)

type Repository interface {
	DocumentCountsByStatus(ctx context.Context) (map[string]int, error)
	ChunkCount(ctx context.Context) (int, error)
	SessionCount(ctx context.Context) (int, error)
	MessageCount(ctx context.Context) (int, error)
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

type StatsResponse struct {
	Documents map[string]int `json:"documents"`
	Chunks    int            `json:"chunks"`
	Sessions  int            `json:"sessions"`
	Messages  int            `json:"messages"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.repo.DocumentCountsByStatus(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count documents", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count documents", http.StatusInternalServerError)
		return
	}

	chunks, err := h.repo.ChunkCount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	sessions, err := h.repo.SessionCount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count sessions", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count sessions", http.StatusInternalServerError)
		return
	}

	messages, err := h.repo.MessageCount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count messages", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count messages", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Documents: docs,
		Chunks:    chunks,
		Sessions:  sessions,
		Messages:  messages,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) DocumentCountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ChunkCount sums the per-document counters rather than reading the
// document_chunks table, which stays empty when chunks live in an
// external vector backend.
func (r *PostgresRepo) ChunkCount(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COALESCE(SUM(chunk_count), 0) FROM documents WHERE status = 'completed'`)
}

func (r *PostgresRepo) SessionCount(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM chat_sessions`)
}

func (r *PostgresRepo) MessageCount(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM chat_messages`)
}

func (r *PostgresRepo) count(ctx context.Context, query string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}
