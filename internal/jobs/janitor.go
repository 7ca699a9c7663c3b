package jobs

import (
	"context"
	"log"
	"time"

	"focusroom-backend/internal/repository"
)

// A session whose connection died without a leave stays open in the
// database. The janitor closes any open session older than the full
// focus-plus-break cycle with generous slack.
const staleSessionAge = 2 * time.Hour

// Janitor periodically ends abandoned study sessions. Completed sessions
// are never touched.
type Janitor struct {
	sessionRepo *repository.SessionRepo
	interval    time.Duration
	stopChan    chan struct{}
}

func NewJanitor(sessionRepo *repository.SessionRepo, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Janitor{
		sessionRepo: sessionRepo,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

func (j *Janitor) Start() {
	go j.loop()
}

func (j *Janitor) Stop() {
	select {
	case <-j.stopChan:
		return
	default:
		close(j.stopChan)
	}
}

func (j *Janitor) loop() {
	// Run on startup as well as by interval.
	j.sweep()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-staleSessionAge)
	closed, err := j.sessionRepo.CloseStale(ctx, cutoff)
	if err != nil {
		log.Printf("janitor: failed to close stale sessions: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("janitor: closed %d stale sessions", closed)
	}
}
