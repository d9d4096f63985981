package models

import "time"

// SyncState is the phase a live class session is in. It is pushed by the
// teacher's control surface and mirrored by every student view.
type SyncState string

const (
	SyncWaiting    SyncState = "waiting"     // created, nothing selected yet
	SyncLessonNote SyncState = "lesson_note" // teacher is presenting study material
	SyncPlaying    SyncState = "playing"     // students are answering
	SyncPaused     SyncState = "paused"      // temporary hold, resumable
	SyncFinished   SyncState = "finished"    // terminal
)

func (s SyncState) Valid() bool {
	switch s {
	case SyncWaiting, SyncLessonNote, SyncPlaying, SyncPaused, SyncFinished:
		return true
	}
	return false
}

// Terminal reports whether the state has no outgoing transitions.
func (s SyncState) Terminal() bool {
	return s == SyncFinished
}

// CanTransition reports whether a session may move between two sync states.
// The teacher drives every transition, so anything goes except resurrecting
// a finished session.
func CanTransition(from, to SyncState) bool {
	if !to.Valid() {
		return false
	}
	if from.Terminal() {
		return to == from
	}
	return true
}

// Session is a teacher-initiated, code-addressable live classroom instance.
// The 6-character SessionID is the only credential students need to join.
type Session struct {
	SessionID         string    `json:"session_id"`
	TeacherID         string    `json:"teacher_id"`
	CreatedAt         time.Time `json:"created_at"`
	ActiveStatus      bool      `json:"active_status"`
	Students          []string  `json:"students"`
	CurrentModuleID   *string   `json:"current_module_id,omitempty"`
	CurrentLevelIndex *int      `json:"current_level_index,omitempty"`
	SyncState         SyncState `json:"sync_state"`
}

// HasStudent reports whether a display name already joined (exact match).
func (s *Session) HasStudent(name string) bool {
	for _, n := range s.Students {
		if n == name {
			return true
		}
	}
	return false
}

// SessionStateUpdate is a partial update to a session's real-time state.
// Nil fields are left untouched.
type SessionStateUpdate struct {
	CurrentModuleID   *string    `json:"current_module_id"`
	CurrentLevelIndex *int       `json:"current_level_index"`
	SyncState         *SyncState `json:"sync_state"`
}

type JoinSessionRequest struct {
	StudentName string `json:"student_name"`
}
