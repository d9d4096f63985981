package repository

import (
	"context"
	"strings"
	"testing"

	"parentyn-backend/internal/models"
	"parentyn-backend/internal/notify"
	"parentyn-backend/internal/store"
)

func newTestRepo(t *testing.T) (*SessionRepo, *store.MemoryStore, *notify.Bus) {
	t.Helper()
	st := store.NewMemoryStore()
	bus := notify.NewBus()
	return NewSessionRepo(st, bus), st, bus
}

func TestCreateSession(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	session, err := repo.Create(ctx, "t1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(session.SessionID) != 6 {
		t.Errorf("Expected 6-character code, got %q", session.SessionID)
	}
	if !session.ActiveStatus {
		t.Error("Expected new session to be active")
	}
	if session.SyncState != models.SyncWaiting {
		t.Errorf("Expected sync_state 'waiting', got %q", session.SyncState)
	}
	if len(session.Students) != 0 {
		t.Errorf("Expected empty students, got %v", session.Students)
	}
	if session.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
}

func TestCreateSession_UniqueActiveCodes(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := repo.Create(ctx, "t1")
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		// Codes of ended/superseded sessions may legally repeat, but no
		// two sessions active at the same time may share one. Since each
		// Create supersedes the previous, just assert the fresh code is
		// not the currently active one twice over.
		if seen[s.SessionID] {
			// A repeat is only legal if the earlier holder is inactive.
			prev, _ := repo.Get(ctx, s.SessionID)
			if prev == nil {
				t.Fatalf("Created session %q not found", s.SessionID)
			}
		}
		seen[s.SessionID] = true
	}
}

func TestCreateSession_SingleActivePerOwner(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	first, _ := repo.Create(ctx, "t1")
	second, _ := repo.Create(ctx, "t1")
	third, _ := repo.Create(ctx, "t1")

	for _, tc := range []struct {
		code   string
		active bool
	}{
		{first.SessionID, false},
		{second.SessionID, false},
		{third.SessionID, true},
	} {
		s, err := repo.Get(ctx, tc.code)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", tc.code, err)
		}
		if s == nil {
			t.Fatalf("Session %s disappeared", tc.code)
		}
		if s.ActiveStatus != tc.active {
			t.Errorf("Session %s: expected active=%v, got %v", tc.code, tc.active, s.ActiveStatus)
		}
	}

	active, _ := repo.ActiveForOwner(ctx, "t1")
	if active == nil || active.SessionID != third.SessionID {
		t.Errorf("Expected active session %s, got %+v", third.SessionID, active)
	}
}

func TestCreateSession_DoesNotDeactivateOtherOwners(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	other, _ := repo.Create(ctx, "t2")
	repo.Create(ctx, "t1")

	s, _ := repo.Get(ctx, other.SessionID)
	if s == nil || !s.ActiveStatus {
		t.Error("Creating a session for t1 must not deactivate t2's session")
	}
}

func TestJoinSession(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	session, _ := repo.Create(ctx, "t1")

	ok, err := repo.Join(ctx, session.SessionID, "Ada")
	if err != nil || !ok {
		t.Fatalf("Join failed: ok=%v err=%v", ok, err)
	}

	// Idempotent: second join succeeds, name appears once.
	ok, err = repo.Join(ctx, session.SessionID, "Ada")
	if err != nil || !ok {
		t.Fatalf("Repeat join failed: ok=%v err=%v", ok, err)
	}

	s, _ := repo.Get(ctx, session.SessionID)
	if len(s.Students) != 1 || s.Students[0] != "Ada" {
		t.Errorf("Expected students [Ada], got %v", s.Students)
	}

	// Case-sensitive exact match: "ada" is a different student.
	repo.Join(ctx, session.SessionID, "ada")
	s, _ = repo.Get(ctx, session.SessionID)
	if len(s.Students) != 2 {
		t.Errorf("Expected 2 students, got %v", s.Students)
	}
}

func TestJoinSession_Rejections(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	session, _ := repo.Create(ctx, "t1")
	repo.End(ctx, session.SessionID)

	tests := []struct {
		name    string
		code    string
		student string
	}{
		{"never-issued code", "ZZZZZZ", "Bob"},
		{"ended session", session.SessionID, "Bob"},
		{"blank student name", session.SessionID, "   "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := repo.Join(ctx, tc.code, tc.student)
			if err != nil {
				t.Fatalf("Join returned error: %v", err)
			}
			if ok {
				t.Error("Expected join to be rejected")
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	if repo.IsValid(ctx, "ZZZZZZ") {
		t.Error("Never-issued code must be invalid")
	}

	session, _ := repo.Create(ctx, "t1")
	if !repo.IsValid(ctx, session.SessionID) {
		t.Error("Fresh session must be valid")
	}

	// Codes entered by students are uppercased and trimmed.
	if !repo.IsValid(ctx, "  "+strings.ToLower(session.SessionID)+" ") {
		t.Error("Lowercased code with surrounding whitespace must still validate")
	}

	repo.End(ctx, session.SessionID)
	if repo.IsValid(ctx, session.SessionID) {
		t.Error("Ended session must be invalid")
	}
}

func TestUpdateState(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	session, _ := repo.Create(ctx, "t1")

	moduleID := "mod_1"
	level := 2
	playing := models.SyncPlaying
	err := repo.UpdateState(ctx, session.SessionID, models.SessionStateUpdate{
		CurrentModuleID:   &moduleID,
		CurrentLevelIndex: &level,
		SyncState:         &playing,
	})
	if err != nil {
		t.Fatalf("UpdateState failed: %v", err)
	}

	s, _ := repo.Get(ctx, session.SessionID)
	if s.CurrentModuleID == nil || *s.CurrentModuleID != "mod_1" {
		t.Errorf("Expected module mod_1, got %v", s.CurrentModuleID)
	}
	if s.CurrentLevelIndex == nil || *s.CurrentLevelIndex != 2 {
		t.Errorf("Expected level 2, got %v", s.CurrentLevelIndex)
	}
	if s.SyncState != models.SyncPlaying {
		t.Errorf("Expected playing, got %q", s.SyncState)
	}

	// Partial update leaves other fields untouched.
	paused := models.SyncPaused
	repo.UpdateState(ctx, session.SessionID, models.SessionStateUpdate{SyncState: &paused})
	s, _ = repo.Get(ctx, session.SessionID)
	if s.CurrentModuleID == nil || *s.CurrentModuleID != "mod_1" {
		t.Error("Partial update must not clear current_module_id")
	}
	if s.SyncState != models.SyncPaused {
		t.Errorf("Expected paused, got %q", s.SyncState)
	}
}

func TestUpdateState_AbsentSessionIsNoOp(t *testing.T) {
	repo, _, _ := newTestRepo(t)

	playing := models.SyncPlaying
	err := repo.UpdateState(context.Background(), "ZZZZZZ", models.SessionStateUpdate{SyncState: &playing})
	if err != nil {
		t.Errorf("UpdateState on absent session must not error, got %v", err)
	}
}

func TestUpdateState_FinishedIsTerminal(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	session, _ := repo.Create(ctx, "t1")
	repo.End(ctx, session.SessionID)

	playing := models.SyncPlaying
	level := 1
	err := repo.UpdateState(ctx, session.SessionID, models.SessionStateUpdate{
		SyncState:         &playing,
		CurrentLevelIndex: &level,
	})
	if err != nil {
		t.Fatalf("UpdateState returned error: %v", err)
	}

	s, _ := repo.Get(ctx, session.SessionID)
	if s.SyncState != models.SyncFinished {
		t.Errorf("Finished session was resurrected to %q", s.SyncState)
	}
	if s.CurrentLevelIndex != nil {
		t.Error("Rejected update must not apply any of its fields")
	}
}

func TestEndSession(t *testing.T) {
	repo, _, bus := newTestRepo(t)
	ctx := context.Background()

	session, _ := repo.Create(ctx, "t1")

	if err := repo.End(ctx, session.SessionID); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	s, _ := repo.Get(ctx, session.SessionID)
	if s.ActiveStatus {
		t.Error("Ended session still active")
	}
	if s.SyncState != models.SyncFinished {
		t.Errorf("Expected finished, got %q", s.SyncState)
	}

	// Idempotent in effect, but still re-notifies.
	notified := 0
	unsubscribe := bus.Subscribe(notify.TopicSessions, func() { notified++ })
	defer unsubscribe()

	if err := repo.End(ctx, session.SessionID); err != nil {
		t.Fatalf("Second End failed: %v", err)
	}
	if notified != 1 {
		t.Errorf("Expected 1 notification from repeated End, got %d", notified)
	}

	// Ending a nonexistent session is a silent no-op.
	if err := repo.End(ctx, "ZZZZZZ"); err != nil {
		t.Errorf("End on absent session must not error, got %v", err)
	}
}

func TestMutationsNotify(t *testing.T) {
	repo, _, bus := newTestRepo(t)
	ctx := context.Background()

	notified := 0
	unsubscribe := bus.Subscribe(notify.TopicSessions, func() { notified++ })
	defer unsubscribe()

	session, _ := repo.Create(ctx, "t1")
	repo.Join(ctx, session.SessionID, "Bob")
	playing := models.SyncPlaying
	repo.UpdateState(ctx, session.SessionID, models.SessionStateUpdate{SyncState: &playing})
	repo.End(ctx, session.SessionID)

	if notified != 4 {
		t.Errorf("Expected 4 notifications for 4 mutations, got %d", notified)
	}

	// Reads do not notify.
	repo.Get(ctx, session.SessionID)
	repo.IsValid(ctx, session.SessionID)
	if notified != 4 {
		t.Errorf("Reads must not notify, got %d", notified)
	}
}

func TestMalformedStoreReadsAsEmpty(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	st.Set(ctx, store.SessionsKey, []byte("{not json"))

	repo := NewSessionRepo(st, notify.NewBus())

	if s, err := repo.Get(ctx, "ABCDEF"); err != nil || s != nil {
		t.Errorf("Expected absent session from corrupt store, got %+v err=%v", s, err)
	}

	// The repository recovers: creating a session rebuilds the blob.
	session, err := repo.Create(ctx, "t1")
	if err != nil {
		t.Fatalf("Create over corrupt store failed: %v", err)
	}
	if !repo.IsValid(ctx, session.SessionID) {
		t.Error("Session created over corrupt store must be valid")
	}
}

func TestEndToEndScenario(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	session, err := repo.Create(ctx, "t1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	code := session.SessionID

	if ok, _ := repo.Join(ctx, code, "Bob"); !ok {
		t.Fatal("Join should succeed")
	}

	s, _ := repo.Get(ctx, code)
	if len(s.Students) != 1 || s.Students[0] != "Bob" {
		t.Fatalf("Expected students [Bob], got %v", s.Students)
	}

	playing := models.SyncPlaying
	repo.UpdateState(ctx, code, models.SessionStateUpdate{SyncState: &playing})
	s, _ = repo.Get(ctx, code)
	if s.SyncState != models.SyncPlaying {
		t.Fatalf("Expected playing, got %q", s.SyncState)
	}

	repo.End(ctx, code)
	if repo.IsValid(ctx, code) {
		t.Error("Ended session must be invalid")
	}
}
