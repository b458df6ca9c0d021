package handlers

import (
	"net/http"

	"meducare/internal/service"
)

// StatsHandler handles the streak and statistics endpoints
type StatsHandler struct {
	streaks *service.StreakService
	stats   *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(streaks *service.StreakService, stats *service.StatsService) *StatsHandler {
	return &StatsHandler{streaks: streaks, stats: stats}
}

// Streak handles GET /api/streak
func (h *StatsHandler) Streak(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	streak, err := h.streaks.GetStreak(uid)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load streak", "streak lookup failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, streak)
}

// Stats handles GET /api/stats
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	stats, err := h.stats.GetStats(uid)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load stats", "stats lookup failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"totalQuizzes":            stats.TotalQuizzes,
		"totalGoodAnswers":        stats.TotalGoodAnswers,
		"totalQuestionsAttempted": stats.TotalQuestionsAttempted,
		"accuracy":                service.Accuracy(stats),
		"averageDuration":         service.AverageDuration(stats),
	})
}
