package service

import (
	"testing"
	"time"
)

func TestRecordQuizCompletion(t *testing.T) {
	store := newFakeStore()
	svc := NewStreakService(store)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return current })

	// First quiz ever starts a streak of 1
	streak, err := svc.RecordQuizCompletion("u1")
	if err != nil {
		t.Fatalf("RecordQuizCompletion: %v", err)
	}
	if streak.CurrentStreak != 1 || streak.HighestStreak != 1 {
		t.Errorf("streak = %d/%d, want 1/1", streak.CurrentStreak, streak.HighestStreak)
	}
	if streak.LastQuizDate != "2026-03-01" {
		t.Errorf("LastQuizDate = %q, want 2026-03-01", streak.LastQuizDate)
	}

	// A second quiz the same day changes nothing
	streak, err = svc.RecordQuizCompletion("u1")
	if err != nil {
		t.Fatalf("RecordQuizCompletion: %v", err)
	}
	if streak.CurrentStreak != 1 {
		t.Errorf("same-day streak = %d, want 1", streak.CurrentStreak)
	}

	// The next day extends the streak
	current = current.Add(24 * time.Hour)
	streak, err = svc.RecordQuizCompletion("u1")
	if err != nil {
		t.Fatalf("RecordQuizCompletion: %v", err)
	}
	if streak.CurrentStreak != 2 || streak.HighestStreak != 2 {
		t.Errorf("streak = %d/%d, want 2/2", streak.CurrentStreak, streak.HighestStreak)
	}

	// Skipping a day resets to 1 but keeps the highest
	current = current.Add(48 * time.Hour)
	streak, err = svc.RecordQuizCompletion("u1")
	if err != nil {
		t.Fatalf("RecordQuizCompletion: %v", err)
	}
	if streak.CurrentStreak != 1 {
		t.Errorf("streak after gap = %d, want 1", streak.CurrentStreak)
	}
	if streak.HighestStreak != 2 {
		t.Errorf("HighestStreak = %d, want 2", streak.HighestStreak)
	}
}

func TestGetStreakDefaultsToZero(t *testing.T) {
	svc := NewStreakService(newFakeStore())

	streak, err := svc.GetStreak("nobody")
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if streak.CurrentStreak != 0 || streak.HighestStreak != 0 || streak.LastQuizDate != "" {
		t.Errorf("streak = %+v, want zero value", streak)
	}
}
