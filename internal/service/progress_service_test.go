package service

import (
	"errors"
	"testing"
	"time"

	"meducare/internal/models"
)

const (
	cardioID = "maladies_cardiovasculaires"
	respID   = "maladies_respiratoires"
)

var errListFailed = errors.New("list failed")

func newProgressHarness(t *testing.T) (*ProgressService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewProgressService(store)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return current })
	return svc, store
}

func seedProgress(t *testing.T, store *fakeStore, uid string, progress models.UserProgress) {
	t.Helper()
	if err := store.Set(progressPath(uid), &progress); err != nil {
		t.Fatalf("seed progress: %v", err)
	}
}

func TestInitializeUserProgressDiscoversCatalog(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_2", 2)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 2)
	store.seedQuiz("facile", respID, respID+"_quiz_1", 2)

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}

	if progress.TotalXP != 0 {
		t.Errorf("TotalXP = %d, want 0", progress.TotalXP)
	}
	if progress.HeartsCount != models.MaxHearts {
		t.Errorf("HeartsCount = %d, want %d", progress.HeartsCount, models.MaxHearts)
	}
	if len(progress.Difficulties) != len(models.Difficulties) {
		t.Fatalf("difficulties = %d, want %d", len(progress.Difficulties), len(models.Difficulties))
	}

	facile := progress.Difficulties[0]
	if !facile.Unlocked {
		t.Error("facile should start unlocked")
	}
	if len(facile.Categories) != 2 {
		t.Fatalf("facile categories = %d, want 2", len(facile.Categories))
	}
	cardio := facile.Categories[0]
	if cardio.CategoryID != cardioID {
		t.Errorf("category ID = %q, want %q", cardio.CategoryID, cardioID)
	}
	if len(cardio.Quizzes) != 2 {
		t.Fatalf("cardio quizzes = %d, want 2", len(cardio.Quizzes))
	}
	if cardio.Quizzes[0].QuizID != cardioID+"_quiz_1" {
		t.Errorf("first quiz = %q, want %q", cardio.Quizzes[0].QuizID, cardioID+"_quiz_1")
	}

	for _, dp := range progress.Difficulties[1:] {
		if dp.Unlocked {
			t.Errorf("%s should start locked", dp.Difficulty)
		}
		if len(dp.Categories) != 0 {
			t.Errorf("%s categories = %d, want 0", dp.Difficulty, len(dp.Categories))
		}
	}
}

func TestInitializeUserProgressBareCollectionFallback(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", "cardiovasculaires", "cardiovasculaires_quiz_1", 2)

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}

	facile := progress.Difficulties[0]
	if len(facile.Categories) != 1 {
		t.Fatalf("facile categories = %d, want 1", len(facile.Categories))
	}
	if facile.Categories[0].CategoryID != cardioID {
		t.Errorf("category ID = %q, want canonical %q", facile.Categories[0].CategoryID, cardioID)
	}
	if len(facile.Categories[0].Quizzes) != 1 {
		t.Errorf("quizzes = %d, want 1", len(facile.Categories[0].Quizzes))
	}
}

func TestInitializeUserProgressSkeletonFallback(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.listErr = errListFailed

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	if len(progress.Difficulties) != len(models.Difficulties) {
		t.Fatalf("difficulties = %d, want %d", len(progress.Difficulties), len(models.Difficulties))
	}
	if !progress.Difficulties[0].Unlocked {
		t.Error("facile should be unlocked in the skeleton")
	}
	for _, dp := range progress.Difficulties {
		if len(dp.Categories) != 0 {
			t.Errorf("%s categories = %d, want 0", dp.Difficulty, len(dp.Categories))
		}
	}
}

func TestUpdateQuizProgressFirstPass(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_2", 5)
	store.seedQuiz("facile", respID, respID+"_quiz_1", 5)

	result, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 80, 100, 0)
	if err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if !result.Success {
		t.Error("Success = false, want true")
	}
	if result.XPGained != 100 {
		t.Errorf("XPGained = %d, want 100", result.XPGained)
	}
	if !result.NextQuizUnlocked {
		t.Error("NextQuizUnlocked = false, want true")
	}
	if result.LevelCompleted {
		t.Error("LevelCompleted = true, want false")
	}

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	if progress.TotalXP != 100 {
		t.Errorf("TotalXP = %d, want 100", progress.TotalXP)
	}

	cardio := findCategory(&progress.Difficulties[0], cardioID)
	quiz := findQuiz(cardio, cardioID+"_quiz_1")
	if quiz == nil || !quiz.Completed || quiz.Score != 80 {
		t.Fatalf("quiz_1 = %+v, want completed with score 80", quiz)
	}
	if quiz.LastAttemptDate == 0 {
		t.Error("LastAttemptDate not set")
	}
	if cardio.CompletedCount != 1 || cardio.TotalCount != 2 || cardio.Progress != 50 {
		t.Errorf("category aggregates = %d/%d %d%%, want 1/2 50%%", cardio.CompletedCount, cardio.TotalCount, cardio.Progress)
	}

	unlocked, err := svc.IsQuizUnlocked("u1", "facile", cardioID, cardioID+"_quiz_2")
	if err != nil || !unlocked {
		t.Errorf("IsQuizUnlocked(quiz_2) = %v, %v, want true", unlocked, err)
	}
}

func TestUpdateQuizProgressScoreMonotonicAndCompletionSticky(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_2", 5)

	if _, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 80, 100, 0); err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if _, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 40, 40, 0); err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	quiz := findQuiz(findCategory(&progress.Difficulties[0], cardioID), cardioID+"_quiz_1")
	if quiz.Score != 80 {
		t.Errorf("Score = %d, want 80 (no regression)", quiz.Score)
	}
	if !quiz.Completed {
		t.Error("Completed = false, want sticky true after a failing retry")
	}
}

func TestUpdateQuizProgressRewardPolicies(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)

	if _, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 80, 100, 0); err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}

	// Default policy pays out on every attempt
	result, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 80, 100, 0)
	if err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if result.XPGained != 100 {
		t.Errorf("RewardAlways XPGained = %d, want 100", result.XPGained)
	}

	svc.SetRewardPolicy(RewardImprovedOnly)
	result, err = svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 80, 100, 0)
	if err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if result.XPGained != 0 {
		t.Errorf("RewardImprovedOnly XPGained = %d, want 0 for an equal score", result.XPGained)
	}

	result, err = svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 90, 100, 0)
	if err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if result.XPGained != 100 {
		t.Errorf("RewardImprovedOnly XPGained = %d, want 100 for an improved score", result.XPGained)
	}
}

func TestUpdateQuizProgressSynthesizesNextFromCatalog(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)

	// The user's tree was initialized before quiz_2 was published
	if _, err := svc.GetUserProgress("u1", true); err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_2", 5)

	result, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 80, 100, 0)
	if err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if !result.NextQuizUnlocked {
		t.Error("NextQuizUnlocked = false, want true for a catalog quiz missing from the tree")
	}

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	cardio := findCategory(&progress.Difficulties[0], cardioID)
	if findQuiz(cardio, cardioID+"_quiz_2") == nil {
		t.Error("quiz_2 was not added to the tree")
	}
}

func TestUpdateQuizProgressNoPhantomNextQuiz(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)

	result, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 80, 100, 0)
	if err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if result.NextQuizUnlocked {
		t.Error("NextQuizUnlocked = true, want false when no next quiz exists")
	}

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	cardio := findCategory(&progress.Difficulties[0], cardioID)
	if len(cardio.Quizzes) != 1 {
		t.Errorf("quizzes = %d, want 1 (the last quiz must stay last)", len(cardio.Quizzes))
	}
	if !cardio.Completed {
		t.Error("category not completed after passing its only quiz")
	}
}

func TestUpdateQuizProgressDifficultyCompletionBonus(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)

	result, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 100, 100, 0)
	if err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if !result.LevelCompleted {
		t.Error("LevelCompleted = false, want true")
	}
	if want := 100 + models.DifficultyCompletionBonus; result.XPGained != want {
		t.Errorf("XPGained = %d, want %d", result.XPGained, want)
	}

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	if moyen := findDifficulty(progress, "moyen"); moyen == nil || !moyen.Unlocked {
		t.Error("moyen should be unlocked after completing facile")
	}

	// Replaying the quiz never pays the bonus again
	result, err = svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 100, 100, 0)
	if err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}
	if result.LevelCompleted {
		t.Error("LevelCompleted = true on a replay, want false")
	}
	if result.XPGained != 100 {
		t.Errorf("replay XPGained = %d, want 100", result.XPGained)
	}
}

func TestGetUserProgressRepairsLegacyRecords(t *testing.T) {
	svc, store := newProgressHarness(t)
	seedProgress(t, store, "u1", models.UserProgress{
		TotalXP:     300,
		HeartsCount: 4,
		Difficulties: []models.DifficultyProgress{
			{
				Difficulty: "facile",
				Unlocked:   true,
				Categories: []models.CategoryProgress{
					{
						CategoryID: "cardiovasculaires",
						Quizzes: []models.QuizProgress{
							{QuizID: "cardiovasculaires_quiz_1", Score: 75, Completed: false},
						},
					},
				},
			},
		},
	})

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}

	cardio := progress.Difficulties[0].Categories[0]
	if cardio.CategoryID != cardioID {
		t.Errorf("CategoryID = %q, want migrated %q", cardio.CategoryID, cardioID)
	}
	if !cardio.Quizzes[0].Completed {
		t.Error("passing score should force the completed flag on")
	}

	// The repair is persisted, not just served
	var stored models.UserProgress
	if found, err := store.GetInto(progressPath("u1"), &stored); err != nil || !found {
		t.Fatalf("stored progress: found=%v err=%v", found, err)
	}
	if stored.Difficulties[0].Categories[0].CategoryID != cardioID {
		t.Error("repaired category ID was not persisted")
	}
}

func TestCategoryUnlockChain(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)
	store.seedQuiz("facile", respID, respID+"_quiz_1", 5)

	if ok, err := svc.IsCategoryUnlocked("u1", "facile", cardioID); err != nil || !ok {
		t.Errorf("first category unlocked = %v, %v, want true", ok, err)
	}
	if ok, err := svc.IsCategoryUnlocked("u1", "facile", respID); err != nil || ok {
		t.Errorf("second category unlocked = %v, %v, want false", ok, err)
	}

	if _, err := svc.UpdateQuizProgress("u1", "facile", cardioID, cardioID+"_quiz_1", 80, 100, 0); err != nil {
		t.Fatalf("UpdateQuizProgress: %v", err)
	}

	if ok, err := svc.IsCategoryUnlocked("u1", "facile", respID); err != nil || !ok {
		t.Errorf("second category unlocked after completion = %v, %v, want true", ok, err)
	}
	if ok, err := svc.IsCategoryStarted("u1", "facile", cardioID); err != nil || !ok {
		t.Errorf("IsCategoryStarted = %v, %v, want true", ok, err)
	}
	if ok, err := svc.IsCategoryStarted("u1", "facile", respID); err != nil || ok {
		t.Errorf("IsCategoryStarted(untouched) = %v, %v, want false", ok, err)
	}
}

func TestIsDifficultyUnlocked(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)

	if ok, err := svc.IsDifficultyUnlocked("u1", "facile"); err != nil || !ok {
		t.Errorf("facile unlocked = %v, %v, want true", ok, err)
	}
	if ok, err := svc.IsDifficultyUnlocked("u1", "moyen"); err != nil || ok {
		t.Errorf("moyen unlocked = %v, %v, want false", ok, err)
	}
}

func TestUpdateTotalXPClampsAtZero(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)

	if _, err := svc.UpdateTotalXP("u1", 100); err != nil {
		t.Fatalf("UpdateTotalXP: %v", err)
	}
	if _, err := svc.UpdateTotalXP("u1", -500); err != nil {
		t.Fatalf("UpdateTotalXP: %v", err)
	}

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	if progress.TotalXP != 0 {
		t.Errorf("TotalXP = %d, want 0", progress.TotalXP)
	}
}

func TestMirrorHeartsCountTouchesOnlyHearts(t *testing.T) {
	svc, store := newProgressHarness(t)
	store.seedQuiz("facile", cardioID, cardioID+"_quiz_1", 5)

	if _, err := svc.UpdateTotalXP("u1", 250); err != nil {
		t.Fatalf("UpdateTotalXP: %v", err)
	}
	if err := svc.MirrorHeartsCount("u1", 2); err != nil {
		t.Fatalf("MirrorHeartsCount: %v", err)
	}

	progress, err := svc.GetUserProgress("u1", true)
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	if progress.HeartsCount != 2 {
		t.Errorf("HeartsCount = %d, want 2", progress.HeartsCount)
	}
	if progress.TotalXP != 250 {
		t.Errorf("TotalXP = %d, want 250 (unrelated fields must survive the merge)", progress.TotalXP)
	}
}
