package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"focusroom-backend/internal/models"
)

// ErrUpdateContention is returned when the conditional profile update kept
// losing against concurrent writers for the same user.
var ErrUpdateContention = errors.New("profile update contention")

const completeRetries = 3

// querier is the subset of pgxpool.Pool the profile repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ProfileRepo struct {
	db querier
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{db: pool}
}

func (r *ProfileRepo) Create(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT DO NOTHING", userID)
	return err
}

func (r *ProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	query := `SELECT user_id, current_streak, longest_streak, total_study_minutes, last_session_date, plan, plan_expires_at, updated_at
		FROM profiles WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.CurrentStreak, &p.LongestStreak, &p.TotalStudyMinutes,
		&p.LastSessionDate, &p.Plan, &p.PlanExpiresAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CompleteWorkInterval credits one completed work interval against the
// profile counters. The write is a read-modify-write guarded by a
// conditional update on the previously read counter values, so two tabs
// completing "simultaneously" cannot lose an update; the loser re-reads
// and retries.
func (r *ProfileRepo) CompleteWorkInterval(ctx context.Context, userID uuid.UUID, minutes int) (*models.Profile, error) {
	for attempt := 0; attempt < completeRetries; attempt++ {
		p, err := r.Get(ctx, userID)
		if err != nil {
			return nil, err
		}

		prevStreak := p.CurrentStreak
		prevLongest := p.LongestStreak
		prevTotal := p.TotalStudyMinutes
		prevDate := p.LastSessionDate

		p.ApplyWorkInterval(minutes, time.Now().UTC())

		tag, err := r.db.Exec(ctx, `
			UPDATE profiles
			SET current_streak = $1,
				longest_streak = $2,
				total_study_minutes = $3,
				last_session_date = $4,
				updated_at = NOW()
			WHERE user_id = $5
			  AND current_streak = $6
			  AND longest_streak = $7
			  AND total_study_minutes = $8
			  AND last_session_date IS NOT DISTINCT FROM $9
		`, p.CurrentStreak, p.LongestStreak, p.TotalStudyMinutes, p.LastSessionDate,
			userID, prevStreak, prevLongest, prevTotal, prevDate)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 1 {
			return p, nil
		}
	}
	return nil, ErrUpdateContention
}

func (r *ProfileRepo) SetPlan(ctx context.Context, userID uuid.UUID, plan string, expiresAt *time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE profiles SET plan = $1, plan_expires_at = $2, updated_at = NOW() WHERE user_id = $3",
		plan, expiresAt, userID)
	return err
}

func (r *ProfileRepo) TopByStreak(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return r.top(ctx, "p.current_streak DESC, p.total_study_minutes DESC", limit)
}

func (r *ProfileRepo) TopByStudyTime(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return r.top(ctx, "p.total_study_minutes DESC, p.current_streak DESC", limit)
}

func (r *ProfileRepo) top(ctx context.Context, order string, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.user_id, u.full_name, u.avatar_url, p.current_streak, p.total_study_minutes
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE u.is_active = TRUE
		ORDER BY `+order+`
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.FullName, &e.AvatarURL, &e.CurrentStreak, &e.TotalStudyMinutes); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TotalStudyMinutes sums every profile's accumulated time, for admin stats.
func (r *ProfileRepo) TotalStudyMinutes(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, "SELECT COALESCE(SUM(total_study_minutes), 0) FROM profiles").Scan(&total)
	return total, err
}
