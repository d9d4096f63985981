// Package sessionsync is the consumer side of the coordination layer:
// given a join code it hands out the current session snapshot and keeps
// calling back with fresh ones whenever the store changes, whether the
// change came from this process or another one sharing the store.
package sessionsync

import (
	"context"

	"parentyn-backend/internal/models"
	"parentyn-backend/internal/notify"
	"parentyn-backend/internal/repository"
)

type Listener struct {
	repo     *repository.SessionRepo
	notifier notify.Notifier
}

func NewListener(repo *repository.SessionRepo, notifier notify.Notifier) *Listener {
	return &Listener{repo: repo, notifier: notifier}
}

// Snapshot loads the current session without subscribing.
func (l *Listener) Snapshot(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	return l.repo.Get(ctx, sessionID)
}

// Subscribe loads the current snapshot for the session and registers
// onChange for every subsequent store mutation. Each notification causes
// a full reload; the callback may therefore see an unchanged session, a
// nil one, or a different session entirely if an ended code was reused.
//
// An empty sessionID performs no subscription: the snapshot is nil and
// unsubscribe is a no-op. Unsubscribing more than once is safe.
func (l *Listener) Subscribe(ctx context.Context, sessionID string, onChange func(*models.Session)) (*models.Session, func()) {
	if sessionID == "" {
		return nil, func() {}
	}

	sessionID = repository.NormalizeCode(sessionID)
	snapshot, _ := l.repo.Get(ctx, sessionID)

	unsubscribe := l.notifier.Subscribe(notify.TopicSessions, func() {
		current, _ := l.repo.Get(ctx, sessionID)
		onChange(current)
	})

	return snapshot, unsubscribe
}
