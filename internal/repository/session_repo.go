package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"focusroom-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	query := `
		INSERT INTO study_sessions (user_id, room_label)
		VALUES ($1, $2)
		RETURNING id, started_at
	`
	return r.pool.QueryRow(ctx, query, s.UserID, s.RoomLabel).Scan(&s.ID, &s.StartedAt)
}

// MarkCompleted flips a session to completed exactly once. A session that is
// already completed or ended is left untouched.
func (r *SessionRepo) MarkCompleted(ctx context.Context, sessionID uuid.UUID, durationMinutes int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET completed = TRUE,
			ended_at = NOW(),
			duration_minutes = $2
		WHERE id = $1
		  AND completed = FALSE
		  AND ended_at IS NULL
	`, sessionID, durationMinutes)
	return err
}

// Abandon closes a session that never completed, recording zero credited
// minutes. Used when the user leaves the room mid-interval and by the
// janitor for sessions whose connection silently died.
func (r *SessionRepo) Abandon(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET ended_at = NOW()
		WHERE id = $1
		  AND user_id = $2
		  AND ended_at IS NULL
	`, sessionID, userID)
	return err
}

// CloseStale ends every open session that started before the cutoff.
// Returns the number of sessions closed.
func (r *SessionRepo) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET ended_at = NOW()
		WHERE ended_at IS NULL
		  AND started_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.StudySession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, room_label, started_at, ended_at, completed, duration_minutes
		FROM study_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.StudySession, 0)
	for rows.Next() {
		var s models.StudySession
		if err := rows.Scan(&s.ID, &s.UserID, &s.RoomLabel, &s.StartedAt, &s.EndedAt, &s.Completed, &s.DurationMinutes); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
