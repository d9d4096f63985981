package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"parentyn-backend/internal/middleware"
	"parentyn-backend/internal/models"
	"parentyn-backend/internal/repository"
)

// invalidJoinMessage is the only error string this surface shows
// students. Ended and never-issued codes read identically on purpose.
const invalidJoinMessage = "Invalid Code or Session Closed"

// LevelCounter reports how many levels a registry module has, bounding
// the level index a session may be steered to. *repository.ModuleRepo
// satisfies it.
type LevelCounter interface {
	LevelCount(ctx context.Context, id uuid.UUID) (int, error)
}

type SessionHandler struct {
	sessions *repository.SessionRepo
	modules  LevelCounter
}

func NewSessionHandler(sessions *repository.SessionRepo, modules LevelCounter) *SessionHandler {
	return &SessionHandler{sessions: sessions, modules: modules}
}

// Create starts a fresh live session for the authenticated teacher,
// deactivating whichever one they were running before.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())

	session, err := h.sessions.Create(r.Context(), teacherID.String())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create session", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"session": session})
}

// Active returns the teacher's current active session, or null.
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())

	session, err := h.sessions.ActiveForOwner(r.Context(), teacherID.String())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// Get returns the snapshot students render from. Public by design; the
// join code is the only credential a student has.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	session, err := h.sessions.Get(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// Valid is the join-time gate used by the login surface.
func (h *SessionHandler) Valid(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	writeJSON(w, http.StatusOK, map[string]bool{"valid": h.sessions.IsValid(r.Context(), code)})
}

func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req models.JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	joined, err := h.sessions.Join(r.Context(), code, req.StudentName)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to join session", r))
		return
	}
	if !joined {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_JOIN", invalidJoinMessage, r))
		return
	}

	session, _ := h.sessions.Get(r.Context(), code)
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// UpdateState is the teacher's "socket push": it moves every student
// view to a module, level, or sync phase.
func (h *SessionHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	code := chi.URLParam(r, "code")

	var upd models.SessionStateUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if upd.SyncState != nil && !upd.SyncState.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown sync_state", r))
		return
	}

	session, err := h.sessions.Get(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}
	if session != nil && session.TeacherID != teacherID.String() {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Not your session", r))
		return
	}

	if err := h.checkLevelBound(r, session, upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}

	// Absent sessions fall through: the repository treats them as a
	// no-op rather than an error so stale teacher tabs don't crash.
	if err := h.sessions.UpdateState(r.Context(), code, upd); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update session", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session state updated"})
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	code := chi.URLParam(r, "code")

	session, err := h.sessions.Get(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}
	if session != nil && session.TeacherID != teacherID.String() {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Not your session", r))
		return
	}

	if err := h.sessions.End(r.Context(), code); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to end session", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session ended"})
}

// checkLevelBound rejects a level index past the end of the module being
// presented. Module ids that are not registry uuids (bundled library
// content) stay opaque and unbounded.
func (h *SessionHandler) checkLevelBound(r *http.Request, session *models.Session, upd models.SessionStateUpdate) error {
	if upd.CurrentLevelIndex == nil {
		return nil
	}
	if *upd.CurrentLevelIndex < 0 {
		return errLevelOutOfRange
	}

	moduleID := upd.CurrentModuleID
	if moduleID == nil && session != nil {
		moduleID = session.CurrentModuleID
	}
	if moduleID == nil || h.modules == nil {
		return nil
	}

	id, err := uuid.Parse(*moduleID)
	if err != nil {
		return nil
	}
	count, err := h.modules.LevelCount(r.Context(), id)
	if err != nil {
		return nil
	}
	if *upd.CurrentLevelIndex >= count {
		return errLevelOutOfRange
	}
	return nil
}

var errLevelOutOfRange = levelRangeError{}

type levelRangeError struct{}

func (levelRangeError) Error() string { return "current_level_index is out of range for the module" }
