package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusroom-backend/internal/models"
)

type fakeSessionStore struct {
	mu sync.Mutex

	createCalls    int
	createErr      error
	completedIDs   []uuid.UUID
	completeErr    error
	abandonedIDs   []uuid.UUID
	abandonErr     error
	lastDurationMn int

	// When set, Create signals createStarted and blocks until
	// createRelease closes, holding the insert in flight.
	createStarted chan struct{}
	createRelease chan struct{}
}

func (f *fakeSessionStore) Create(_ context.Context, s *models.StudySession) error {
	if f.createStarted != nil {
		f.createStarted <- struct{}{}
		<-f.createRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.createCalls++
	s.ID = uuid.New()
	return nil
}

func (f *fakeSessionStore) MarkCompleted(_ context.Context, sessionID uuid.UUID, durationMinutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completedIDs = append(f.completedIDs, sessionID)
	f.lastDurationMn = durationMinutes
	return nil
}

func (f *fakeSessionStore) Abandon(_ context.Context, sessionID, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandonErr != nil {
		return f.abandonErr
	}
	f.abandonedIDs = append(f.abandonedIDs, sessionID)
	return nil
}

type fakeProfileStore struct {
	mu      sync.Mutex
	calls   int
	minutes []int
	err     error
	profile *models.Profile
}

func (f *fakeProfileStore) CompleteWorkInterval(_ context.Context, _ uuid.UUID, minutes int) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	f.minutes = append(f.minutes, minutes)
	return f.profile, nil
}

func newTestManager(store *fakeSessionStore, profiles *fakeProfileStore, opts ...Option) *Manager {
	return NewManager(store, profiles, uuid.New(), "Deep Work Hall", opts...)
}

func TestManager_StartBeginsFocus(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	state, err := m.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseFocus, state.Phase)
	assert.Equal(t, FocusSeconds, state.RemainingSeconds)
	assert.NotNil(t, state.SessionID)
	assert.Equal(t, 1, store.createCalls)
}

func TestManager_SecondStartRejected(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	first, err := m.Start(context.Background())
	require.NoError(t, err)

	second, err := m.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionActive)
	assert.Equal(t, 1, store.createCalls, "rejected start must not create a row")
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, PhaseFocus, second.Phase)
}

func TestManager_StartStoreFailureStaysIdle(t *testing.T) {
	store := &fakeSessionStore{createErr: errors.New("insert failed")}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	_, err := m.Start(context.Background())
	require.Error(t, err)

	state := m.Snapshot()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Nil(t, state.SessionID)

	// The manager recovers: a retry is allowed once the store is healthy.
	store.createErr = nil
	state, err = m.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseFocus, state.Phase)
}

func TestManager_StartDuringPendingStartRejected(t *testing.T) {
	store := &fakeSessionStore{
		createStarted: make(chan struct{}),
		createRelease: make(chan struct{}),
	}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	firstErr := make(chan error, 1)
	go func() {
		_, err := m.Start(context.Background())
		firstErr <- err
	}()

	// The first start is mid-insert; a second start must bounce off the
	// gate instead of creating a second row.
	<-store.createStarted
	_, err := m.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionActive)

	close(store.createRelease)
	require.NoError(t, <-firstErr)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.createCalls)
}

func TestManager_TickCountsDown(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	_, err := m.Start(context.Background())
	require.NoError(t, err)

	state := m.Tick(context.Background())
	assert.Equal(t, PhaseFocus, state.Phase)
	assert.Equal(t, FocusSeconds-1, state.RemainingSeconds)
}

func TestManager_FocusCompletionCreditsExactlyOnce(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{CurrentStreak: 4, TotalStudyMinutes: 245}}
	var completed []*models.Profile
	m := newTestManager(store, profiles, WithCompleteFunc(func(p *models.Profile) {
		completed = append(completed, p)
	}))

	started, err := m.Start(context.Background())
	require.NoError(t, err)
	sessionID := *started.SessionID

	ctx := context.Background()
	var state State
	for i := 0; i < FocusSeconds; i++ {
		state = m.Tick(ctx)
	}

	assert.Equal(t, PhaseBreak, state.Phase)
	assert.Equal(t, BreakSeconds, state.RemainingSeconds)
	assert.Nil(t, state.SessionID)

	require.Len(t, store.completedIDs, 1)
	assert.Equal(t, sessionID, store.completedIDs[0])
	assert.Equal(t, WorkIntervalMinutes, store.lastDurationMn)
	assert.Equal(t, 1, profiles.calls)
	require.Len(t, completed, 1)
	assert.Equal(t, 4, completed[0].CurrentStreak)

	// Further ticks run the break; nothing credits twice.
	m.Tick(ctx)
	assert.Len(t, store.completedIDs, 1)
	assert.Equal(t, 1, profiles.calls)
}

func TestManager_CompletionFailureStillReachesBreak(t *testing.T) {
	store := &fakeSessionStore{completeErr: errors.New("db down")}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	var reported []error
	m := newTestManager(store, profiles, WithErrorFunc(func(err error) {
		reported = append(reported, err)
	}))

	_, err := m.Start(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	var state State
	for i := 0; i < FocusSeconds; i++ {
		state = m.Tick(ctx)
	}

	assert.Equal(t, PhaseBreak, state.Phase)
	require.Len(t, reported, 1)
	assert.Equal(t, 0, profiles.calls, "profile credit skipped when the session row cannot be closed")
}

func TestManager_ProfileFailureReported(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{err: errors.New("contention")}
	var reported []error
	var completed int
	m := newTestManager(store, profiles,
		WithErrorFunc(func(err error) { reported = append(reported, err) }),
		WithCompleteFunc(func(*models.Profile) { completed++ }),
	)

	_, err := m.Start(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < FocusSeconds; i++ {
		m.Tick(ctx)
	}

	assert.Len(t, store.completedIDs, 1)
	require.Len(t, reported, 1)
	assert.Equal(t, 0, completed)
	assert.Equal(t, PhaseBreak, m.Snapshot().Phase)
}

func TestManager_BreakEndsInIdle(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	_, err := m.Start(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < FocusSeconds+BreakSeconds; i++ {
		m.Tick(ctx)
	}

	state := m.Snapshot()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, 0, state.RemainingSeconds)
	assert.Nil(t, state.SessionID)

	// Idle ticks are inert.
	state = m.Tick(ctx)
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Len(t, store.completedIDs, 1)
}

func TestManager_LeaveAbandonsActiveSession(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	started, err := m.Start(context.Background())
	require.NoError(t, err)

	m.Leave(context.Background())

	require.Len(t, store.abandonedIDs, 1)
	assert.Equal(t, *started.SessionID, store.abandonedIDs[0])
	assert.Empty(t, store.completedIDs)
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)
}

func TestManager_LeaveDuringBreakDoesNotAbandon(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	_, err := m.Start(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < FocusSeconds; i++ {
		m.Tick(ctx)
	}
	require.Equal(t, PhaseBreak, m.Snapshot().Phase)

	m.Leave(ctx)

	assert.Empty(t, store.abandonedIDs, "completed session must stay completed")
	assert.Len(t, store.completedIDs, 1)
}

func TestManager_LeaveWhileIdleIsNoop(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	m := newTestManager(store, profiles)

	m.Leave(context.Background())

	assert.Empty(t, store.abandonedIDs)
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)
}

func TestManager_StateCallbackObservesTransitions(t *testing.T) {
	store := &fakeSessionStore{}
	profiles := &fakeProfileStore{profile: &models.Profile{}}
	var phases []Phase
	m := newTestManager(store, profiles, WithStateFunc(func(s State) {
		phases = append(phases, s.Phase)
	}))

	_, err := m.Start(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, phases)
	assert.Equal(t, PhaseFocus, phases[0])

	ctx := context.Background()
	for i := 0; i < FocusSeconds; i++ {
		m.Tick(ctx)
	}
	assert.Equal(t, PhaseBreak, phases[len(phases)-1])
}
