package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"parentyn-backend/internal/middleware"
	"parentyn-backend/internal/models"
	"parentyn-backend/internal/repository"
	"parentyn-backend/internal/services"
)

type ModuleHandler struct {
	modules   *repository.ModuleRepo
	generator *services.GeneratorService
}

func NewModuleHandler(modules *repository.ModuleRepo, generator *services.GeneratorService) *ModuleHandler {
	return &ModuleHandler{modules: modules, generator: generator}
}

func (h *ModuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())

	var req models.CreateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"title": "Title is required"}, r))
		return
	}

	var levels []models.Level
	if len(req.Levels) > 0 {
		if err := json.Unmarshal(req.Levels, &levels); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid levels payload", r))
			return
		}
	}

	module := &models.GameModule{
		TeacherID:  teacherID,
		Title:      req.Title,
		Subject:    req.Subject,
		Grade:      req.Grade,
		ClassLevel: req.ClassLevel,
		Template:   req.Template,
		LessonNote: req.LessonNote,
		LevelsJSON: req.Levels,
		LevelCount: len(levels),
	}
	if err := h.modules.Create(r.Context(), module); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create module", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"module": module})
}

func (h *ModuleHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())

	modules, err := h.modules.ListByTeacher(r.Context(), teacherID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list modules", r))
		return
	}
	if modules == nil {
		modules = []*models.GameModule{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"modules": modules})
}

// Get is public: students load the module a session points them at.
func (h *ModuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid module ID", r))
		return
	}

	module, err := h.modules.GetByID(r.Context(), id)
	if err != nil {
		if err == pgx.ErrNoRows {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Module not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load module", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"module": module})
}

func (h *ModuleHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeOwner(w, r) {
		return
	}
	id, _ := uuid.Parse(chi.URLParam(r, "id"))

	if err := h.modules.UpdateStatus(r.Context(), id, "published"); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to publish module", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Module published"})
}

func (h *ModuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeOwner(w, r) {
		return
	}
	id, _ := uuid.Parse(chi.URLParam(r, "id"))

	if err := h.modules.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete module", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Module deleted"})
}

// Generate asks Gemini for levels of one activity type from a lesson note.
func (h *ModuleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateLevelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.LessonNote == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"lesson_note": "Lesson note is required"}, r))
		return
	}

	levels, err := h.generator.GenerateLevels(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("GENERATION_FAILED", "Content generation failed", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"levels": levels})
}

// ExtendNote deepens an existing lesson note.
func (h *ModuleHandler) ExtendNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonNote  string `json:"lesson_note"`
		Subject     string `json:"subject"`
		ClassLevel  string `json:"class_level"`
		Instruction string `json:"instruction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	note, err := h.generator.ExtendLessonNote(r.Context(), req.LessonNote, req.Subject, req.ClassLevel, req.Instruction)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("GENERATION_FAILED", "Content generation failed", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"lesson_note": note})
}

func (h *ModuleHandler) authorizeOwner(w http.ResponseWriter, r *http.Request) bool {
	teacherID := middleware.GetTeacherID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid module ID", r))
		return false
	}

	module, err := h.modules.GetByID(r.Context(), id)
	if err != nil {
		if err == pgx.ErrNoRows {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Module not found", r))
			return false
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load module", r))
		return false
	}
	if module.TeacherID != teacherID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Not your module", r))
		return false
	}
	return true
}
