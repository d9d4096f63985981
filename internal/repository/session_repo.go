package repository

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"parentyn-backend/internal/models"
	"parentyn-backend/internal/notify"
	"parentyn-backend/internal/store"
)

// SessionRepo owns every read-modify-write cycle against the session
// collection. All mutations funnel through its named operations; after
// each one the full collection is persisted and the session topic is
// published. Listeners never receive deltas, they reload.
type SessionRepo struct {
	store    store.Store
	notifier notify.Notifier
	mu       sync.Mutex // one read-modify-write cycle at a time in this process
}

func NewSessionRepo(st store.Store, notifier notify.Notifier) *SessionRepo {
	return &SessionRepo{store: st, notifier: notifier}
}

// NormalizeCode uppercases a join code typed by a student. The alphabet
// is uppercase-only, so entry surfaces must not be case-sensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *SessionRepo) load(ctx context.Context) []models.Session {
	raw, ok, err := r.store.Get(ctx, store.SessionsKey)
	if err != nil {
		log.Printf("session repo: store read failed: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var sessions []models.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		// Corrupt blob: recover as empty rather than surfacing an
		// error the UI cannot render.
		log.Printf("session repo: discarding malformed session store: %v", err)
		return nil
	}
	return sessions
}

func (r *SessionRepo) save(ctx context.Context, sessions []models.Session) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, store.SessionsKey, raw); err != nil {
		return err
	}
	r.notifier.Publish(ctx, notify.TopicSessions)
	return nil
}

// Create issues a fresh session for the teacher with a unique join code
// and deactivates any previous session the same teacher owns. At most
// one session per teacher is active at any moment.
func (r *SessionRepo) Create(ctx context.Context, teacherID string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.load(ctx)

	active := make(map[string]bool, len(sessions))
	for i := range sessions {
		if sessions[i].ActiveStatus {
			active[sessions[i].SessionID] = true
		}
		if sessions[i].TeacherID == teacherID {
			sessions[i].ActiveStatus = false
		}
	}

	session := models.Session{
		SessionID:    generateCode(active),
		TeacherID:    teacherID,
		CreatedAt:    time.Now().UTC(),
		ActiveStatus: true,
		Students:     []string{},
		SyncState:    models.SyncWaiting,
	}
	sessions = append(sessions, session)

	if err := r.save(ctx, sessions); err != nil {
		return nil, err
	}
	return &session, nil
}

// Get returns the session with the given code, or nil if none exists.
func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	sessionID = NormalizeCode(sessionID)
	for _, s := range r.load(ctx) {
		if s.SessionID == sessionID {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

// ActiveForOwner returns the teacher's currently active session, if any.
func (r *SessionRepo) ActiveForOwner(ctx context.Context, teacherID string) (*models.Session, error) {
	for _, s := range r.load(ctx) {
		if s.TeacherID == teacherID && s.ActiveStatus {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

// IsValid is the join-time gate. An ended code and a never-issued code
// are rejected identically so callers cannot tell which codes existed.
func (r *SessionRepo) IsValid(ctx context.Context, sessionID string) bool {
	s, _ := r.Get(ctx, sessionID)
	return s != nil && s.ActiveStatus
}

// Join appends the student to an active session. Joining twice with the
// same name is a success but the name is kept once.
func (r *SessionRepo) Join(ctx context.Context, sessionID, studentName string) (bool, error) {
	studentName = strings.TrimSpace(studentName)
	if studentName == "" {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID = NormalizeCode(sessionID)
	sessions := r.load(ctx)
	idx := findSession(sessions, sessionID)
	if idx < 0 || !sessions[idx].ActiveStatus {
		return false, nil
	}

	if sessions[idx].HasStudent(studentName) {
		return true, nil
	}

	sessions[idx].Students = append(sessions[idx].Students, studentName)
	if err := r.save(ctx, sessions); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateState merges the non-nil fields of the update into the session.
// An unknown code is a silent no-op: callers react to stale references
// all the time and must not crash. A finished session stays finished;
// an update that tries to move it is rejected as a unit.
func (r *SessionRepo) UpdateState(ctx context.Context, sessionID string, upd models.SessionStateUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID = NormalizeCode(sessionID)
	sessions := r.load(ctx)
	idx := findSession(sessions, sessionID)
	if idx < 0 {
		return nil
	}

	if upd.SyncState != nil && !models.CanTransition(sessions[idx].SyncState, *upd.SyncState) {
		return nil
	}

	if upd.CurrentModuleID != nil {
		sessions[idx].CurrentModuleID = upd.CurrentModuleID
	}
	if upd.CurrentLevelIndex != nil {
		sessions[idx].CurrentLevelIndex = upd.CurrentLevelIndex
	}
	if upd.SyncState != nil {
		sessions[idx].SyncState = *upd.SyncState
	}

	return r.save(ctx, sessions)
}

// End deactivates the session and marks it finished. Ending an already
// ended session keeps its state but still re-persists and re-notifies.
func (r *SessionRepo) End(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID = NormalizeCode(sessionID)
	sessions := r.load(ctx)
	idx := findSession(sessions, sessionID)
	if idx < 0 {
		return nil
	}

	sessions[idx].ActiveStatus = false
	sessions[idx].SyncState = models.SyncFinished
	return r.save(ctx, sessions)
}

func findSession(sessions []models.Session, sessionID string) int {
	for i := range sessions {
		if sessions[i].SessionID == sessionID {
			return i
		}
	}
	return -1
}
