package handlers

import (
	"net/http"

	"meducare/internal/service"
)

// ProgressHandler handles the progress endpoints
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// Get handles GET /api/progress
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"
	progress, err := h.progress.GetUserProgress(uid, forceRefresh)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load progress", "progress lookup failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

// AddXP handles POST /api/progress/xp
func (h *ProgressHandler) AddXP(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	var req struct {
		Amount int `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if _, err := h.progress.UpdateTotalXP(uid, req.Amount); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update XP", "xp update failed", err)
		return
	}

	progress, err := h.progress.GetUserProgress(uid, true)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load progress", "progress lookup failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

// Unlocks handles GET /api/progress/unlocks/{difficulty}/{category}
func (h *ProgressHandler) Unlocks(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	difficulty := r.PathValue("difficulty")
	categoryID := r.PathValue("category")

	unlocked, err := h.progress.IsCategoryUnlocked(uid, difficulty, categoryID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to check unlocks", "unlock check failed", err)
		return
	}
	completed, err := h.progress.IsCategoryCompleted(uid, difficulty, categoryID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to check unlocks", "unlock check failed", err)
		return
	}
	started, err := h.progress.IsCategoryStarted(uid, difficulty, categoryID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to check unlocks", "unlock check failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{
		"unlocked":  unlocked,
		"completed": completed,
		"started":   started,
	})
}
