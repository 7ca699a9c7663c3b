package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focusroom-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

// Append persists a message. The (room, user, client_token) unique
// constraint makes client retries idempotent: a duplicate send returns the
// row that was already written.
func (r *ChatRepo) Append(ctx context.Context, m *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (room_id, user_id, client_token, text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_id, user_id, client_token) DO UPDATE SET text = chat_messages.text
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, m.RoomID, m.UserID, m.ClientToken, m.Text).Scan(&m.ID, &m.CreatedAt)
}

// Backlog returns the room's messages in ascending created_at order.
func (r *ChatRepo) Backlog(ctx context.Context, roomID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, user_id, client_token, text, created_at
		FROM (
			SELECT id, room_id, user_id, client_token, text, created_at
			FROM chat_messages
			WHERE room_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *ChatRepo) ListRecent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, user_id, client_token, text, created_at
		FROM chat_messages
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *ChatRepo) Delete(ctx context.Context, messageID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM chat_messages WHERE id = $1", messageID)
	return err
}

func (r *ChatRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM chat_messages").Scan(&n)
	return n, err
}

func scanMessages(rows pgx.Rows) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.ClientToken, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
