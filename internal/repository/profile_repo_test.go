package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProfileDB holds one profile row in memory and honours the conditional
// UPDATE the same way Postgres does: the write only lands when the WHERE
// clause still matches the stored counters. afterRead, when set, runs after
// each SELECT to play the part of a concurrent writer.
type fakeProfileDB struct {
	userID    uuid.UUID
	streak    int
	longest   int
	total     int
	date      *time.Time
	plan      string
	updatedAt time.Time

	reads     int
	afterRead func(db *fakeProfileDB, read int)
}

type fakeProfileRow struct {
	scan func(dest ...any) error
}

func (r fakeProfileRow) Scan(dest ...any) error { return r.scan(dest...) }

func (db *fakeProfileDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	db.reads++
	read := db.reads

	// Snapshot before the concurrent writer runs, like a SELECT that
	// completed just before another transaction committed.
	streak, longest, total := db.streak, db.longest, db.total
	date := db.date

	if db.afterRead != nil {
		db.afterRead(db, read)
	}

	return fakeProfileRow{scan: func(dest ...any) error {
		*dest[0].(*uuid.UUID) = db.userID
		*dest[1].(*int) = streak
		*dest[2].(*int) = longest
		*dest[3].(*int) = total
		*dest[4].(**time.Time) = date
		*dest[5].(*string) = db.plan
		*dest[6].(**time.Time) = nil
		*dest[7].(*time.Time) = db.updatedAt
		return nil
	}}
}

func (db *fakeProfileDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	prevStreak := args[5].(int)
	prevLongest := args[6].(int)
	prevTotal := args[7].(int)
	prevDate, _ := args[8].(*time.Time)

	if prevStreak != db.streak || prevLongest != db.longest || prevTotal != db.total || !sameDate(prevDate, db.date) {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}

	db.streak = args[0].(int)
	db.longest = args[1].(int)
	db.total = args[2].(int)
	db.date, _ = args[3].(*time.Time)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (db *fakeProfileDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func yesterday() *time.Time {
	d := time.Now().UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour)
	return &d
}

func newProfileDB() *fakeProfileDB {
	return &fakeProfileDB{
		userID:  uuid.New(),
		streak:  3,
		longest: 5,
		total:   200,
		date:    yesterday(),
		plan:    "free",
	}
}

func TestCompleteWorkInterval_CreditsCounters(t *testing.T) {
	db := newProfileDB()
	repo := &ProfileRepo{db: db}

	p, err := repo.CompleteWorkInterval(context.Background(), db.userID, 45)
	require.NoError(t, err)

	assert.Equal(t, 4, p.CurrentStreak)
	assert.Equal(t, 5, p.LongestStreak)
	assert.Equal(t, 245, p.TotalStudyMinutes)
	assert.Equal(t, 245, db.total, "the write landed")
	assert.Equal(t, 1, db.reads)
}

func TestCompleteWorkInterval_RetriesAfterConcurrentWrite(t *testing.T) {
	db := newProfileDB()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	// A second tab completes between this tab's read and its conditional
	// UPDATE: the first attempt loses, the retry re-reads and lands on top.
	db.afterRead = func(db *fakeProfileDB, read int) {
		if read == 1 {
			db.streak = 4
			db.total = 245
			db.date = &today
		}
	}

	repo := &ProfileRepo{db: db}
	p, err := repo.CompleteWorkInterval(context.Background(), db.userID, 45)
	require.NoError(t, err)

	assert.Equal(t, 2, db.reads, "one retry after the lost update")
	assert.Equal(t, 290, p.TotalStudyMinutes, "both completions counted")
	assert.Equal(t, 4, p.CurrentStreak, "streak credited once for the day")
	assert.Equal(t, 290, db.total)
}

func TestCompleteWorkInterval_ContentionSurfaces(t *testing.T) {
	db := newProfileDB()

	// Every read is immediately invalidated, so every attempt loses.
	db.afterRead = func(db *fakeProfileDB, _ int) {
		db.total++
	}

	repo := &ProfileRepo{db: db}
	_, err := repo.CompleteWorkInterval(context.Background(), db.userID, 45)

	assert.ErrorIs(t, err, ErrUpdateContention)
	assert.Equal(t, completeRetries, db.reads)
}
