package service

import (
	"fmt"
	"time"

	"meducare/internal/models"
	"meducare/internal/repository"
)

// StreakService tracks consecutive days on which the user completed at
// least one quiz.
type StreakService struct {
	store DocStore
	now   func() time.Time
}

// NewStreakService creates a streak service over store
func NewStreakService(store DocStore) *StreakService {
	return &StreakService{store: store, now: time.Now}
}

// SetClock overrides the time source, used by tests
func (s *StreakService) SetClock(now func() time.Time) {
	s.now = now
}

func streakPath(uid string) string {
	return repository.Path("userStreaks", uid)
}

const dayFormat = "2006-01-02"

// GetStreak returns the user's streak, zero-valued when never recorded
func (s *StreakService) GetStreak(uid string) (*models.Streak, error) {
	var streak models.Streak
	if _, err := s.store.GetInto(streakPath(uid), &streak); err != nil {
		return nil, fmt.Errorf("failed to load streak for user %s: %w", uid, err)
	}
	return &streak, nil
}

// RecordQuizCompletion bumps the streak for today: a second quiz on the
// same day is a no-op, a quiz the day after the last one extends the
// streak, anything later restarts it at 1.
func (s *StreakService) RecordQuizCompletion(uid string) (*models.Streak, error) {
	streak, err := s.GetStreak(uid)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(dayFormat)
	if streak.LastQuizDate == today {
		return streak, nil
	}

	yesterday := s.now().AddDate(0, 0, -1).Format(dayFormat)
	if streak.LastQuizDate == yesterday {
		streak.CurrentStreak++
	} else {
		streak.CurrentStreak = 1
	}
	streak.LastQuizDate = today

	if streak.CurrentStreak > streak.HighestStreak {
		streak.HighestStreak = streak.CurrentStreak
	}

	if err := s.store.Set(streakPath(uid), streak); err != nil {
		return nil, fmt.Errorf("failed to save streak for user %s: %w", uid, err)
	}
	return streak, nil
}
