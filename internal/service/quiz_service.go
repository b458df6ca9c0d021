package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"meducare/internal/models"
	"meducare/internal/repository"
)

var (
	// ErrNoHeartsLeft is returned when the user has no hearts to spend
	ErrNoHeartsLeft = errors.New("no hearts left")

	// ErrQuizNotFound is returned when a quiz is missing from the catalog
	ErrQuizNotFound = errors.New("quiz not found")
)

// AttemptOutcome is the full result of a submitted quiz attempt
type AttemptOutcome struct {
	AttemptID   string                  `json:"attemptId"`
	Result      models.QuizResult       `json:"result"`
	HeartsDelta int                     `json:"heartsDelta"`
	Progress    models.QuizUpdateResult `json:"progress"`
	Streak      *models.Streak          `json:"streak,omitempty"`
}

// QuizService reads the quiz catalog, grades answers and orchestrates the
// bookkeeping around a finished attempt.
type QuizService struct {
	store    DocStore
	hearts   *HeartsService
	progress *ProgressService
	streaks  *StreakService
	stats    *StatsService
	now      func() time.Time
}

// NewQuizService creates a quiz service over the given collaborators
func NewQuizService(store DocStore, hearts *HeartsService, progress *ProgressService, streaks *StreakService, stats *StatsService) *QuizService {
	return &QuizService{
		store:    store,
		hearts:   hearts,
		progress: progress,
		streaks:  streaks,
		stats:    stats,
		now:      time.Now,
	}
}

// SetClock overrides the time source, used by tests
func (s *QuizService) SetClock(now func() time.Time) {
	s.now = now
}

// GetQuiz loads one quiz document, trying the canonical category
// collection first and the bare legacy name as fallback. Returns nil when
// the quiz does not exist under either.
func (s *QuizService) GetQuiz(difficulty, categoryID, quizID string) (*models.Quiz, error) {
	canonical := models.CanonicalCategoryID(categoryID)

	for _, category := range []string{canonical, models.BaseCategoryID(categoryID)} {
		var quiz models.Quiz
		found, err := s.store.GetInto(repository.Path("quizzes", difficulty, category, quizID), &quiz)
		if err != nil {
			return nil, err
		}
		if found {
			if quiz.ID == "" {
				quiz.ID = quizID
			}
			return &quiz, nil
		}
	}
	return nil, nil
}

// ListQuizzes returns a category's quizzes sorted by sequence index
func (s *QuizService) ListQuizzes(difficulty, categoryID string) ([]models.Quiz, error) {
	canonical := models.CanonicalCategoryID(categoryID)

	docs, err := s.store.List(repository.Path("quizzes", difficulty, canonical))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		docs, err = s.store.List(repository.Path("quizzes", difficulty, models.BaseCategoryID(categoryID)))
		if err != nil {
			return nil, err
		}
	}

	quizzes := make([]models.Quiz, 0, len(docs))
	for _, doc := range docs {
		var quiz models.Quiz
		if err := json.Unmarshal(doc.Data, &quiz); err != nil {
			log.Printf("skipping malformed quiz document %s: %v", doc.ID, err)
			continue
		}
		if quiz.ID == "" {
			quiz.ID = doc.ID
		}
		quizzes = append(quizzes, quiz)
	}

	sort.Slice(quizzes, func(i, j int) bool {
		return models.QuizIndex(quizzes[i].ID) < models.QuizIndex(quizzes[j].ID)
	})
	return quizzes, nil
}

// Grade scores a set of answers against a quiz. Answers are option
// indexes aligned with the question list; missing answers count as wrong.
func Grade(quiz *models.Quiz, answers []int) models.QuizResult {
	total := len(quiz.Questions)
	if total == 0 {
		return models.QuizResult{}
	}

	correct := 0
	for i, question := range quiz.Questions {
		if i < len(answers) && answers[i] == question.CorrectOption {
			correct++
		}
	}

	score := int(math.Round(float64(correct) / float64(total) * 100))
	return models.QuizResult{
		Score:    score,
		Correct:  correct,
		Total:    total,
		EarnedXP: correct * models.XPPerCorrectAnswer,
	}
}

// SubmitAttempt runs the whole completion flow: heart gate, grading,
// progress update, heart outcome, streak and stats bookkeeping, and the
// attempt record. Streak/stats failures are logged, not fatal, matching
// the tolerance the rest of the flow has for partial side effects.
func (s *QuizService) SubmitAttempt(uid, difficulty, categoryID, quizID string, answers []int, durationSeconds int) (*AttemptOutcome, error) {
	canPlay, err := s.hearts.CanPlayQuiz(uid)
	if err != nil {
		return nil, err
	}
	if !canPlay {
		return nil, ErrNoHeartsLeft
	}

	quiz, err := s.GetQuiz(difficulty, categoryID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}

	result := Grade(quiz, answers)
	if quiz.XPReward > 0 && result.Score >= models.PassingScore {
		result.EarnedXP += quiz.XPReward
	}

	update, err := s.progress.UpdateQuizProgress(uid, difficulty, categoryID, quizID, result.Score, result.EarnedXP, quiz.HeartsReward)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	heartsDelta, err := s.hearts.HandleQuizCompletion(uid, result.Score)
	if err != nil {
		log.Printf("failed to apply heart outcome for user %s: %v", uid, err)
	}

	streak, err := s.streaks.RecordQuizCompletion(uid)
	if err != nil {
		log.Printf("failed to update streak for user %s: %v", uid, err)
	}
	if _, err := s.stats.RecordQuiz(uid, result.Correct, result.Total, durationSeconds); err != nil {
		log.Printf("failed to update stats for user %s: %v", uid, err)
	}

	attempt := models.QuizAttempt{
		ID:          uuid.New().String(),
		QuizID:      quizID,
		Difficulty:  difficulty,
		CategoryID:  models.CanonicalCategoryID(categoryID),
		Score:       result.Score,
		Correct:     result.Correct,
		Total:       result.Total,
		EarnedXP:    result.EarnedXP,
		HeartsDelta: heartsDelta,
		Duration:    durationSeconds,
		CompletedAt: s.now().UnixMilli(),
	}
	if err := s.store.Set(repository.Path("quizAttempts", uid, attempt.ID), &attempt); err != nil {
		log.Printf("failed to record attempt for user %s: %v", uid, err)
	}

	return &AttemptOutcome{
		AttemptID:   attempt.ID,
		Result:      result,
		HeartsDelta: heartsDelta,
		Progress:    update,
		Streak:      streak,
	}, nil
}

// ListAttempts returns a user's stored attempts, newest first
func (s *QuizService) ListAttempts(uid string) ([]models.QuizAttempt, error) {
	docs, err := s.store.List(repository.Path("quizAttempts", uid))
	if err != nil {
		return nil, err
	}

	attempts := make([]models.QuizAttempt, 0, len(docs))
	for _, doc := range docs {
		var attempt models.QuizAttempt
		if err := json.Unmarshal(doc.Data, &attempt); err != nil {
			log.Printf("skipping malformed attempt document %s: %v", doc.ID, err)
			continue
		}
		attempts = append(attempts, attempt)
	}

	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt > attempts[j].CompletedAt
	})
	return attempts, nil
}
