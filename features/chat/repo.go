package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/madhusudhankonda/ifi-chatbot/internal/retrieval"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) EnsureSession(ctx context.Context, sessionID, userID string) error {
	query := `INSERT INTO chat_sessions (id, user_id) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, sessionID, userID)
	return err
}

func (r *PostgresRepo) SaveMessage(ctx context.Context, sessionID, role, content string, citations []retrieval.Citation) error {
	if citations == nil {
		citations = []retrieval.Citation{}
	}
	payload, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	query := `INSERT INTO chat_messages (session_id, role, content, citations) VALUES ($1, $2, $3, $4)`
	_, err = r.db.ExecContext(ctx, query, sessionID, role, content, payload)
	return err
}

func (r *PostgresRepo) History(ctx context.Context, sessionID string) ([]Message, error) {
	query := `SELECT id, session_id, role, content, citations, created_at
		FROM chat_messages WHERE session_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var citations []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &citations, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(citations) > 0 {
			if err := json.Unmarshal(citations, &m.Citations); err != nil {
				return nil, fmt.Errorf("unmarshal citations: %w", err)
			}
		}
		if m.Citations == nil {
			m.Citations = []retrieval.Citation{}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
