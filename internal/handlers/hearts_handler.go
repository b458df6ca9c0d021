package handlers

import (
	"net/http"

	"meducare/internal/service"
)

// HeartsHandler handles the hearts endpoints
type HeartsHandler struct {
	hearts *service.HeartsService
}

// NewHeartsHandler creates a new hearts handler
func NewHeartsHandler(hearts *service.HeartsService) *HeartsHandler {
	return &HeartsHandler{hearts: hearts}
}

// Get handles GET /api/hearts
func (h *HeartsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"
	state, err := h.hearts.GetHeartInfo(uid, forceRefresh)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load hearts", "hearts lookup failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}

// Timer handles GET /api/hearts/timer
func (h *HeartsHandler) Timer(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	remaining, err := h.hearts.TimeUntilNextHeart(uid)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load heart timer", "heart timer failed", err)
		return
	}
	formatted, err := h.hearts.FormattedTimeUntilNextHeart(uid)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load heart timer", "heart timer failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"secondsUntilNextHeart": int(remaining.Seconds()),
		"formatted":             formatted,
	})
}

// Consume handles POST /api/hearts/consume
func (h *HeartsHandler) Consume(w http.ResponseWriter, r *http.Request) {
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
	if req.Amount <= 0 {
		respondWithError(w, http.StatusBadRequest, "Amount must be positive", "", nil)
		return
	}

	if _, err := h.hearts.ConsumeHearts(uid, req.Amount, true); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to consume hearts", "hearts consume failed", err)
		return
	}

	state, err := h.hearts.GetHeartInfo(uid, true)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load hearts", "hearts lookup failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}

// CanPlay handles GET /api/hearts/can-play
func (h *HeartsHandler) CanPlay(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	canPlay, err := h.hearts.CanPlayQuiz(uid)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to check hearts", "can-play check failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"canPlay": canPlay})
}
