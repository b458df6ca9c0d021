package service

import (
	"fmt"
	"math"

	"meducare/internal/models"
	"meducare/internal/repository"
)

// StatsService keeps per-user aggregate quiz statistics
type StatsService struct {
	store DocStore
}

// NewStatsService creates a stats service over store
func NewStatsService(store DocStore) *StatsService {
	return &StatsService{store: store}
}

func statsPath(uid string) string {
	return repository.Path("userStats", uid)
}

// GetStats returns the user's stats, zero-valued when never recorded
func (s *StatsService) GetStats(uid string) (*models.UserStats, error) {
	var stats models.UserStats
	if _, err := s.store.GetInto(statsPath(uid), &stats); err != nil {
		return nil, fmt.Errorf("failed to load stats for user %s: %w", uid, err)
	}
	return &stats, nil
}

// RecordQuiz folds one finished quiz into the aggregates
func (s *StatsService) RecordQuiz(uid string, correct, total, durationSeconds int) (*models.UserStats, error) {
	stats, err := s.GetStats(uid)
	if err != nil {
		return nil, err
	}

	stats.TotalQuizzes++
	stats.TotalGoodAnswers += correct
	stats.TotalQuestionsAttempted += total
	stats.QuizDurations = append(stats.QuizDurations, durationSeconds)

	if err := s.store.Set(statsPath(uid), stats); err != nil {
		return nil, fmt.Errorf("failed to save stats for user %s: %w", uid, err)
	}
	return stats, nil
}

// Accuracy renders the answer accuracy as a percentage string ("87.5%")
func Accuracy(stats *models.UserStats) string {
	if stats == nil || stats.TotalQuestionsAttempted == 0 {
		return "0%"
	}
	pct := float64(stats.TotalGoodAnswers) / float64(stats.TotalQuestionsAttempted) * 100
	return fmt.Sprintf("%.1f%%", pct)
}

// AverageDuration renders the mean quiz duration in seconds ("42s")
func AverageDuration(stats *models.UserStats) string {
	if stats == nil || len(stats.QuizDurations) == 0 {
		return "0s"
	}
	total := 0
	for _, d := range stats.QuizDurations {
		total += d
	}
	avg := math.Round(float64(total) / float64(len(stats.QuizDurations)))
	return fmt.Sprintf("%ds", int(avg))
}
