package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"parentyn-backend/internal/models"
	"parentyn-backend/internal/repository"
)

type AnalyticsHandler struct {
	analytics *repository.AnalyticsRepo
}

func NewAnalyticsHandler(analytics *repository.AnalyticsRepo) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Record stores one completed CBT attempt.
func (h *AnalyticsHandler) Record(w http.ResponseWriter, r *http.Request) {
	var result models.CBTResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now().UTC()
	}

	if err := h.analytics.Record(r.Context(), result); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record result", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Result recorded"})
}

// WeakTopics returns the top missed topics across every recorded attempt.
func (h *AnalyticsHandler) WeakTopics(w http.ResponseWriter, r *http.Request) {
	topics := h.analytics.WeakTopics(r.Context())
	if topics == nil {
		topics = []models.TopicCount{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"weak_topics": topics})
}
