package service

import (
	"errors"
	"testing"
	"time"

	"meducare/internal/models"
)

func newQuizHarness(t *testing.T) (*QuizService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	hearts := NewHeartsService(store)
	hearts.SetClock(clock)
	progress := NewProgressService(store)
	progress.SetClock(clock)
	hearts.SetProgressMirror(progress)
	progress.SetHeartsGranter(hearts)

	streaks := NewStreakService(store)
	streaks.SetClock(clock)
	stats := NewStatsService(store)

	svc := NewQuizService(store, hearts, progress, streaks, stats)
	svc.SetClock(clock)
	return svc, store
}

func TestGrade(t *testing.T) {
	quiz := &models.Quiz{
		Questions: []models.Question{
			{CorrectOption: 0},
			{CorrectOption: 2},
			{CorrectOption: 1},
		},
	}

	tests := []struct {
		name        string
		answers     []int
		wantScore   int
		wantCorrect int
		wantXP      int
	}{
		{"all correct", []int{0, 2, 1}, 100, 3, 60},
		{"one of three", []int{0, 0, 0}, 33, 1, 20},
		{"missing answers count as wrong", []int{0}, 33, 1, 20},
		{"all wrong", []int{1, 1, 0}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Grade(quiz, tt.answers)
			if result.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", result.Score, tt.wantScore)
			}
			if result.Correct != tt.wantCorrect {
				t.Errorf("Correct = %d, want %d", result.Correct, tt.wantCorrect)
			}
			if result.EarnedXP != tt.wantXP {
				t.Errorf("EarnedXP = %d, want %d", result.EarnedXP, tt.wantXP)
			}
			if result.Total != len(quiz.Questions) {
				t.Errorf("Total = %d, want %d", result.Total, len(quiz.Questions))
			}
		})
	}
}

func TestGradeEmptyQuiz(t *testing.T) {
	result := Grade(&models.Quiz{}, []int{0, 1})
	if result != (models.QuizResult{}) {
		t.Errorf("Grade of empty quiz = %+v, want zero result", result)
	}
}

func TestGetQuizBareCollectionFallback(t *testing.T) {
	svc, store := newQuizHarness(t)
	store.seedQuiz("facile", "cardiovasculaires", "cardiovasculaires_quiz_1", 3)

	quiz, err := svc.GetQuiz("facile", cardioID, "cardiovasculaires_quiz_1")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if quiz == nil {
		t.Fatal("quiz not found through the bare collection fallback")
	}
	if len(quiz.Questions) != 3 {
		t.Errorf("questions = %d, want 3", len(quiz.Questions))
	}

	missing, err := svc.GetQuiz("facile", cardioID, "cardiovasculaires_quiz_9")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if missing != nil {
		t.Errorf("missing quiz = %+v, want nil", missing)
	}
}

func TestListQuizzesSortsBySequenceIndex(t *testing.T) {
	svc, store := newQuizHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_10", 1)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_2", 1)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 1)

	quizzes, err := svc.ListQuizzes("facile", cardioID)
	if err != nil {
		t.Fatalf("ListQuizzes: %v", err)
	}
	if len(quizzes) != 3 {
		t.Fatalf("quizzes = %d, want 3", len(quizzes))
	}
	want := []string{cardioID + "_quiz_1", cardioID + "_quiz_2", cardioID + "_quiz_10"}
	for i, quiz := range quizzes {
		if quiz.ID != want[i] {
			t.Errorf("quizzes[%d] = %q, want %q", i, quiz.ID, want[i])
		}
	}
}

func TestSubmitAttemptPassingFlow(t *testing.T) {
	svc, store := newQuizHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_2", 5)

	outcome, err := svc.SubmitAttempt("u1", "facile", cardioID, cardioID+"_quiz_1", []int{0, 0, 0, 0, 1}, 42)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	if outcome.Result.Score != 80 || outcome.Result.Correct != 4 {
		t.Errorf("result = %+v, want score 80 with 4 correct", outcome.Result)
	}
	if outcome.Result.EarnedXP != 80 {
		t.Errorf("EarnedXP = %d, want 80", outcome.Result.EarnedXP)
	}
	if outcome.HeartsDelta != models.HeartsPerWin {
		t.Errorf("HeartsDelta = %d, want %d", outcome.HeartsDelta, models.HeartsPerWin)
	}
	if !outcome.Progress.Success || outcome.Progress.XPGained != 80 {
		t.Errorf("progress = %+v, want success with 80 XP", outcome.Progress)
	}
	if !outcome.Progress.NextQuizUnlocked {
		t.Error("NextQuizUnlocked = false, want true")
	}
	if outcome.Streak == nil || outcome.Streak.CurrentStreak != 1 {
		t.Errorf("streak = %+v, want current streak 1", outcome.Streak)
	}
	if outcome.AttemptID == "" {
		t.Error("AttemptID is empty")
	}

	attempts, err := svc.ListAttempts("u1")
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(attempts))
	}
	if attempts[0].ID != outcome.AttemptID || attempts[0].Score != 80 || attempts[0].Duration != 42 {
		t.Errorf("attempt = %+v, want the submitted outcome", attempts[0])
	}
}

func TestSubmitAttemptFailingCostsHearts(t *testing.T) {
	svc, store := newQuizHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)

	outcome, err := svc.SubmitAttempt("u1", "facile", cardioID, cardioID+"_quiz_1", []int{1, 1, 1, 1, 1}, 30)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if outcome.Result.Score != 0 {
		t.Errorf("Score = %d, want 0", outcome.Result.Score)
	}
	if outcome.HeartsDelta != -models.HeartsPerLoss {
		t.Errorf("HeartsDelta = %d, want %d", outcome.HeartsDelta, -models.HeartsPerLoss)
	}

	state, err := svc.hearts.GetHeartInfo("u1", true)
	if err != nil {
		t.Fatalf("GetHeartInfo: %v", err)
	}
	if state.RemainingHearts != models.MaxHearts-models.HeartsPerLoss {
		t.Errorf("RemainingHearts = %d, want %d", state.RemainingHearts, models.MaxHearts-models.HeartsPerLoss)
	}
}

func TestSubmitAttemptRequiresHearts(t *testing.T) {
	svc, store := newQuizHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)
	seedHearts(t, store, "u1", models.HeartState{RemainingHearts: 0, MaxHearts: models.MaxHearts})

	_, err := svc.SubmitAttempt("u1", "facile", cardioID, cardioID+"_quiz_1", []int{0}, 10)
	if !errors.Is(err, ErrNoHeartsLeft) {
		t.Errorf("err = %v, want ErrNoHeartsLeft", err)
	}
}

func TestSubmitAttemptUnknownQuiz(t *testing.T) {
	svc, _ := newQuizHarness(t)

	_, err := svc.SubmitAttempt("u1", "facile", cardioID, cardioID+"_quiz_7", []int{0}, 10)
	if !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("err = %v, want ErrQuizNotFound", err)
	}
}
