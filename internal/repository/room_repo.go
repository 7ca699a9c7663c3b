package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focusroom-backend/internal/models"
)

type RoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{pool: pool}
}

func (r *RoomRepo) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (name, description, category, created_by, is_private, max_participants, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		room.Name, room.Description, room.Category, room.CreatedBy,
		room.IsPrivate, room.MaxParticipants, room.IsActive,
	).Scan(&room.ID, &room.CreatedAt)
}

func (r *RoomRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room := &models.Room{}
	query := `SELECT id, name, description, category, created_by, is_private, max_participants, is_active, created_at
		FROM rooms WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&room.ID, &room.Name, &room.Description, &room.Category, &room.CreatedBy,
		&room.IsPrivate, &room.MaxParticipants, &room.IsActive, &room.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return room, nil
}

// ListActive returns the joinable catalog, ordered by name the way the
// dashboard renders it.
func (r *RoomRepo) ListActive(ctx context.Context) ([]models.Room, error) {
	return r.list(ctx, "WHERE is_active = TRUE ORDER BY name", 0)
}

func (r *RoomRepo) ListRecent(ctx context.Context, limit int) ([]models.Room, error) {
	return r.list(ctx, "ORDER BY created_at DESC LIMIT $1", limit)
}

func (r *RoomRepo) list(ctx context.Context, clause string, limit int) ([]models.Room, error) {
	query := `SELECT id, name, description, category, created_by, is_private, max_participants, is_active, created_at
		FROM rooms ` + clause

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.pool.Query(ctx, query, limit)
	} else {
		rows, err = r.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]models.Room, 0)
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(
			&room.ID, &room.Name, &room.Description, &room.Category, &room.CreatedBy,
			&room.IsPrivate, &room.MaxParticipants, &room.IsActive, &room.CreatedAt,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepo) SetActive(ctx context.Context, roomID uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx, "UPDATE rooms SET is_active = $1 WHERE id = $2", active, roomID)
	return err
}

func (r *RoomRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rooms WHERE is_active = TRUE").Scan(&n)
	return n, err
}

func (r *RoomRepo) CountByCreator(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rooms WHERE created_by = $1 AND is_active = TRUE", userID).Scan(&n)
	return n, err
}
