package models

import "testing"

func TestSyncStateValid(t *testing.T) {
	for _, s := range []SyncState{SyncWaiting, SyncLessonNote, SyncPlaying, SyncPaused, SyncFinished} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if SyncState("teleporting").Valid() {
		t.Error("Unknown state should be invalid")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from SyncState
		to   SyncState
		ok   bool
	}{
		{"waiting to lesson note", SyncWaiting, SyncLessonNote, true},
		{"waiting straight to playing", SyncWaiting, SyncPlaying, true},
		{"playing to paused", SyncPlaying, SyncPaused, true},
		{"paused back to playing", SyncPaused, SyncPlaying, true},
		{"playing to finished", SyncPlaying, SyncFinished, true},
		{"finished stays finished", SyncFinished, SyncFinished, true},
		{"finished cannot resume", SyncFinished, SyncPlaying, false},
		{"finished cannot rewind", SyncFinished, SyncWaiting, false},
		{"unknown target", SyncPlaying, SyncState("bogus"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.ok {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.ok)
			}
		})
	}
}

func TestHasStudent(t *testing.T) {
	s := &Session{Students: []string{"Ada", "Bob"}}

	if !s.HasStudent("Ada") {
		t.Error("Expected Ada to be present")
	}
	if s.HasStudent("ada") {
		t.Error("Match is case-sensitive; 'ada' is a different student")
	}
	if s.HasStudent("Eve") {
		t.Error("Eve never joined")
	}
}
