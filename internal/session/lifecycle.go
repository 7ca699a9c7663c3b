package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusroom-backend/internal/models"
)

// Phase is the lifecycle state of one room visit.
type Phase string

const (
	PhaseIdle  Phase = "idle"
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
)

const (
	FocusSeconds        = 45 * 60
	BreakSeconds        = 5 * 60
	WorkIntervalMinutes = 45
)

var ErrSessionActive = errors.New("a study session is already active")

// SessionStore persists study session rows.
type SessionStore interface {
	Create(ctx context.Context, s *models.StudySession) error
	MarkCompleted(ctx context.Context, sessionID uuid.UUID, durationMinutes int) error
	Abandon(ctx context.Context, sessionID, userID uuid.UUID) error
}

// ProfileStore owns the streak/time counters.
type ProfileStore interface {
	CompleteWorkInterval(ctx context.Context, userID uuid.UUID, minutes int) (*models.Profile, error)
}

// State is the UI-visible snapshot of the countdown.
type State struct {
	Phase            Phase
	RemainingSeconds int
	SessionID        *uuid.UUID
}

// Manager drives one countdown per active room visit: Idle until the camera
// is first enabled, then Focus(45:00), then Break(5:00) once the work
// interval completes. Completion persists exactly once per session;
// the tracked session ID is cleared before the completion call is issued so
// a slow store can never be asked twice for the same session.
type Manager struct {
	mu sync.Mutex

	sessions SessionStore
	profiles ProfileStore

	userID    uuid.UUID
	roomLabel string

	phase     Phase
	remaining int
	sessionID *uuid.UUID
	starting  bool

	onState    func(State)
	onComplete func(*models.Profile)
	onError    func(error)
}

type Option func(*Manager)

// WithStateFunc registers a callback invoked after every tick and
// transition with the new snapshot.
func WithStateFunc(fn func(State)) Option {
	return func(m *Manager) { m.onState = fn }
}

// WithCompleteFunc registers a callback invoked with the updated profile
// after a work interval is credited.
func WithCompleteFunc(fn func(*models.Profile)) Option {
	return func(m *Manager) { m.onComplete = fn }
}

// WithErrorFunc registers a callback for collaborator failures. Failures
// never stall the countdown; they are reported here instead.
func WithErrorFunc(fn func(error)) Option {
	return func(m *Manager) { m.onError = fn }
}

func NewManager(sessions SessionStore, profiles ProfileStore, userID uuid.UUID, roomLabel string, opts ...Option) *Manager {
	m := &Manager{
		sessions:  sessions,
		profiles:  profiles,
		userID:    userID,
		roomLabel: roomLabel,
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() State {
	return State{Phase: m.phase, RemainingSeconds: m.remaining, SessionID: m.sessionID}
}

// Start begins a focus interval. Only the Idle phase accepts it: a second
// start while a session is tracked creates no row and reports
// ErrSessionActive. A store failure leaves the manager Idle.
func (m *Manager) Start(ctx context.Context) (State, error) {
	m.mu.Lock()
	if m.phase != PhaseIdle || m.sessionID != nil || m.starting {
		state := m.snapshotLocked()
		m.mu.Unlock()
		return state, ErrSessionActive
	}
	// Hold the gate closed while the insert is in flight; the store call
	// must not run under the lock.
	m.starting = true
	m.mu.Unlock()

	s := &models.StudySession{
		UserID:    m.userID,
		RoomLabel: m.roomLabel,
	}
	if err := m.sessions.Create(ctx, s); err != nil {
		m.mu.Lock()
		m.starting = false
		m.mu.Unlock()
		return State{Phase: PhaseIdle}, err
	}

	m.mu.Lock()
	m.starting = false
	m.phase = PhaseFocus
	m.remaining = FocusSeconds
	m.sessionID = &s.ID
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.notifyState(state)
	return state, nil
}

// Tick advances the countdown by one second. The zero boundary fires on
// remaining <= 1, not on a later idle tick.
func (m *Manager) Tick(ctx context.Context) State {
	m.mu.Lock()

	switch m.phase {
	case PhaseIdle:
		state := m.snapshotLocked()
		m.mu.Unlock()
		return state

	case PhaseFocus:
		if m.remaining > 1 {
			m.remaining--
			state := m.snapshotLocked()
			m.mu.Unlock()
			m.notifyState(state)
			return state
		}

		// Work interval complete. Clear the tracked session before the
		// persistence call so this crossing can only fire once, and move
		// into the break regardless of whether persistence succeeds.
		completedID := m.sessionID
		m.sessionID = nil
		m.phase = PhaseBreak
		m.remaining = BreakSeconds
		state := m.snapshotLocked()
		m.mu.Unlock()

		m.notifyState(state)
		if completedID != nil {
			m.persistCompletion(ctx, *completedID)
		}
		return state

	case PhaseBreak:
		if m.remaining > 1 {
			m.remaining--
			state := m.snapshotLocked()
			m.mu.Unlock()
			m.notifyState(state)
			return state
		}

		// Break over. No counters change here; the user starts the next
		// focus interval explicitly.
		m.phase = PhaseIdle
		m.remaining = 0
		state := m.snapshotLocked()
		m.mu.Unlock()

		m.notifyState(state)
		return state
	}

	state := m.snapshotLocked()
	m.mu.Unlock()
	return state
}

// Leave cancels the pending countdown from any phase. A session that
// already completed stays completed; one still mid-focus is closed without
// credit.
func (m *Manager) Leave(ctx context.Context) {
	m.mu.Lock()
	abandonedID := m.sessionID
	m.sessionID = nil
	m.phase = PhaseIdle
	m.remaining = 0
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.notifyState(state)

	if abandonedID != nil {
		if err := m.sessions.Abandon(ctx, *abandonedID, m.userID); err != nil {
			m.notifyError(err)
		}
	}
}

// Run ticks the countdown once per second until ctx is cancelled. One
// runner goroutine per manager; ticks never overlap.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

func (m *Manager) persistCompletion(ctx context.Context, sessionID uuid.UUID) {
	if err := m.sessions.MarkCompleted(ctx, sessionID, WorkIntervalMinutes); err != nil {
		m.notifyError(err)
		return
	}

	profile, err := m.profiles.CompleteWorkInterval(ctx, m.userID, WorkIntervalMinutes)
	if err != nil {
		m.notifyError(err)
		return
	}

	if m.onComplete != nil {
		m.onComplete(profile)
	}
}

func (m *Manager) notifyState(state State) {
	if m.onState != nil {
		m.onState(state)
	}
}

func (m *Manager) notifyError(err error) {
	if m.onError != nil {
		m.onError(err)
		return
	}
	log.Printf("session lifecycle: %v", err)
}
