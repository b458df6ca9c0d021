package service

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"meducare/internal/models"
	"meducare/internal/repository"
)

const progressCacheTTL = 5 * time.Minute

// RewardPolicy decides how much XP a quiz attempt earns given the stored
// and newly achieved scores. The observed app behavior grants the full
// amount on every call; RewardImprovedOnly is the stricter alternative.
type RewardPolicy func(storedScore, newScore, earnedXP int) int

// RewardAlways grants the full XP on every attempt
func RewardAlways(storedScore, newScore, earnedXP int) int {
	return earnedXP
}

// RewardImprovedOnly grants XP only when the score strictly improves
func RewardImprovedOnly(storedScore, newScore, earnedXP int) int {
	if newScore > storedScore {
		return earnedXP
	}
	return 0
}

// heartsGranter is the slice of the hearts service the progress tracker
// needs to hand out earned hearts.
type heartsGranter interface {
	AddHearts(uid string, amount int) (bool, error)
}

type progressCacheEntry struct {
	progress  models.UserProgress
	fetchedAt time.Time
}

// ProgressService tracks the per-user difficulty/category/quiz progress
// tree, unlock gating and total XP.
type ProgressService struct {
	store  DocStore
	hearts heartsGranter
	reward RewardPolicy
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]progressCacheEntry
}

// NewProgressService creates a progress service with the default reward policy
func NewProgressService(store DocStore) *ProgressService {
	return &ProgressService{
		store:  store,
		reward: RewardAlways,
		now:    time.Now,
		cache:  make(map[string]progressCacheEntry),
	}
}

// SetHeartsGranter wires the hearts service in after construction
func (s *ProgressService) SetHeartsGranter(h heartsGranter) {
	s.hearts = h
}

// SetRewardPolicy overrides the XP reward policy
func (s *ProgressService) SetRewardPolicy(policy RewardPolicy) {
	s.reward = policy
}

// SetClock overrides the time source, used by tests
func (s *ProgressService) SetClock(now func() time.Time) {
	s.now = now
}

func progressPath(uid string) string {
	return repository.Path("userProgress", uid)
}

// GetUserProgress returns the user's progress tree, creating it on first
// access. Stored records pass through two repair steps: legacy category
// IDs are renamed to the canonical convention, and quizzes with a passing
// score get their completed flag forced on.
func (s *ProgressService) GetUserProgress(uid string, forceRefresh bool) (*models.UserProgress, error) {
	if !forceRefresh {
		if cached, ok := s.cachedProgress(uid); ok {
			return &cached, nil
		}
	}

	var progress models.UserProgress
	found, err := s.store.GetInto(progressPath(uid), &progress)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for user %s: %w", uid, err)
	}

	if !found {
		return s.InitializeUserProgress(uid)
	}

	if repairProgress(&progress) {
		if err := s.store.Set(progressPath(uid), &progress); err != nil {
			log.Printf("failed to persist repaired progress for user %s: %v", uid, err)
		}
	}

	s.setCache(uid, progress)
	return &progress, nil
}

// repairProgress applies the two read-time repairs and reports whether
// anything changed.
func repairProgress(progress *models.UserProgress) bool {
	changed := false
	for d := range progress.Difficulties {
		difficulty := &progress.Difficulties[d]
		for c := range difficulty.Categories {
			category := &difficulty.Categories[c]

			if canonical := models.CanonicalCategoryID(category.CategoryID); canonical != category.CategoryID {
				category.CategoryID = canonical
				changed = true
			}

			for q := range category.Quizzes {
				quiz := &category.Quizzes[q]
				if quiz.Score >= models.PassingScore && !quiz.Completed {
					quiz.Completed = true
					changed = true
				}
			}
		}
	}
	return changed
}

// InitializeUserProgress builds a fresh progress tree by discovering the
// quizzes that exist for every difficulty and category. Categories with no
// quizzes are omitted. On discovery failure a minimal skeleton is returned
// so the caller still gets a usable tree.
func (s *ProgressService) InitializeUserProgress(uid string) (*models.UserProgress, error) {
	progress, err := s.buildInitialProgress()
	if err != nil {
		log.Printf("failed to build initial progress for user %s, using skeleton: %v", uid, err)
		progress = skeletonProgress()
	}

	if err := s.store.Set(progressPath(uid), progress); err != nil {
		return nil, fmt.Errorf("failed to save initial progress for user %s: %w", uid, err)
	}

	s.setCache(uid, *progress)
	return progress, nil
}

func (s *ProgressService) buildInitialProgress() (*models.UserProgress, error) {
	progress := &models.UserProgress{
		TotalXP:     0,
		HeartsCount: models.MaxHearts,
	}

	for _, difficulty := range models.Difficulties {
		dp := models.DifficultyProgress{
			Difficulty: difficulty,
			Unlocked:   difficulty == models.Difficulties[0],
		}

		for _, categoryID := range models.CategoryIDs {
			quizIDs, err := s.discoverQuizIDs(difficulty, categoryID)
			if err != nil {
				return nil, err
			}
			if len(quizIDs) == 0 {
				continue
			}

			cp := models.CategoryProgress{CategoryID: categoryID}
			for _, quizID := range quizIDs {
				cp.Quizzes = append(cp.Quizzes, models.QuizProgress{QuizID: quizID})
			}
			dp.Categories = append(dp.Categories, cp)
		}

		progress.Difficulties = append(progress.Difficulties, dp)
	}

	recomputeAggregates(progress)
	return progress, nil
}

// skeletonProgress is the minimal fallback tree with empty category lists
func skeletonProgress() *models.UserProgress {
	progress := &models.UserProgress{
		TotalXP:     0,
		HeartsCount: models.MaxHearts,
	}
	for _, difficulty := range models.Difficulties {
		progress.Difficulties = append(progress.Difficulties, models.DifficultyProgress{
			Difficulty: difficulty,
			Unlocked:   difficulty == models.Difficulties[0],
		})
	}
	return progress
}

// discoverQuizIDs lists the quiz documents for a category, trying the
// prefixed collection name first and the bare name as fallback, and sorts
// them by their embedded numeric suffix.
func (s *ProgressService) discoverQuizIDs(difficulty, categoryID string) ([]string, error) {
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

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return models.QuizIndex(ids[i]) < models.QuizIndex(ids[j])
	})
	return ids, nil
}

// UpdateQuizProgress records a quiz attempt: score and completion updates,
// next-quiz unlocking, aggregate recomputation, difficulty unlock chain
// and XP accounting. Failures yield a zeroed result alongside the error.
func (s *ProgressService) UpdateQuizProgress(uid, difficulty, categoryID, quizID string, score, earnedXP, earnedHearts int) (models.QuizUpdateResult, error) {
	result := models.QuizUpdateResult{}

	progress, err := s.GetUserProgress(uid, true)
	if err != nil {
		return result, err
	}

	dp := findDifficulty(progress, difficulty)
	if dp == nil {
		return result, fmt.Errorf("unknown difficulty %q", difficulty)
	}

	cp := findCategory(dp, categoryID)
	if cp == nil {
		// Tolerate categories missing from the tree (e.g. added after
		// the user's progress was initialized)
		dp.Categories = append(dp.Categories, models.CategoryProgress{
			CategoryID: models.CanonicalCategoryID(categoryID),
		})
		cp = &dp.Categories[len(dp.Categories)-1]
	}

	qp := findQuiz(cp, quizID)
	if qp == nil {
		cp.Quizzes = append(cp.Quizzes, models.QuizProgress{QuizID: quizID})
		qp = &cp.Quizzes[len(cp.Quizzes)-1]
	}

	wasLevelCompletedBefore := dp.Completed
	storedScore := qp.Score

	// Completion is sticky: a passing quiz stays completed even if a
	// later attempt scores below the threshold.
	passing := score >= models.PassingScore || qp.Completed
	qp.Completed = passing
	if score > qp.Score {
		qp.Score = score
	}
	qp.LastAttemptDate = s.now().UnixMilli()

	xpGained := s.reward(storedScore, score, earnedXP)

	if passing {
		nextID := models.NextQuizID(qp.QuizID)
		if findQuiz(cp, nextID) != nil {
			result.NextQuizUnlocked = true
		} else if s.quizInCatalog(difficulty, cp.CategoryID, nextID) {
			// A quiz present in the catalog but missing from the tree
			// (added after initialization) is synthesized on the fly
			cp.Quizzes = append(cp.Quizzes, models.QuizProgress{QuizID: nextID})
			result.NextQuizUnlocked = true
		}
	}

	recomputeAggregates(progress)

	if dp2 := findDifficulty(progress, difficulty); dp2 != nil && dp2.Completed && !wasLevelCompletedBefore {
		result.LevelCompleted = true
		xpGained += models.DifficultyCompletionBonus
		if next := models.NextDifficulty(difficulty); next != "" {
			if ndp := findDifficulty(progress, next); ndp != nil {
				ndp.Unlocked = true
			}
		}
	}

	progress.TotalXP += xpGained
	if progress.TotalXP < 0 {
		progress.TotalXP = 0
	}

	if err := s.store.Set(progressPath(uid), progress); err != nil {
		return models.QuizUpdateResult{}, fmt.Errorf("failed to save progress for user %s: %w", uid, err)
	}
	s.setCache(uid, *progress)

	if earnedHearts > 0 && s.hearts != nil {
		if _, err := s.hearts.AddHearts(uid, earnedHearts); err != nil {
			log.Printf("failed to grant %d hearts to user %s: %v", earnedHearts, uid, err)
		}
	}

	result.Success = true
	result.XPGained = xpGained
	return result, nil
}

// quizInCatalog checks whether a quiz document exists, trying the
// canonical category collection first and the bare name as fallback.
func (s *ProgressService) quizInCatalog(difficulty, categoryID, quizID string) bool {
	canonical := models.CanonicalCategoryID(categoryID)
	data, err := s.store.Get(repository.Path("quizzes", difficulty, canonical, quizID))
	if err != nil {
		log.Printf("failed to check quiz catalog for %s: %v", quizID, err)
		return false
	}
	if data != nil {
		return true
	}
	data, err = s.store.Get(repository.Path("quizzes", difficulty, models.BaseCategoryID(categoryID), quizID))
	if err != nil {
		log.Printf("failed to check quiz catalog for %s: %v", quizID, err)
		return false
	}
	return data != nil
}

// recomputeAggregates rederives completedCount/totalCount/progress and
// completion flags bottom-up: quizzes roll into categories, categories
// into difficulties. Difficulty unlock chaining is handled by the caller
// so the first-completion bonus can be gated.
func recomputeAggregates(progress *models.UserProgress) {
	for d := range progress.Difficulties {
		difficulty := &progress.Difficulties[d]

		for c := range difficulty.Categories {
			category := &difficulty.Categories[c]
			category.TotalCount = len(category.Quizzes)
			category.CompletedCount = 0
			for _, quiz := range category.Quizzes {
				if quiz.Completed && quiz.Score >= models.PassingScore {
					category.CompletedCount++
				}
			}
			category.Progress = percentage(category.CompletedCount, category.TotalCount)
			category.Completed = category.TotalCount > 0 && category.CompletedCount == category.TotalCount
		}

		difficulty.TotalCount = len(difficulty.Categories)
		difficulty.CompletedCount = 0
		for _, category := range difficulty.Categories {
			if category.Completed {
				difficulty.CompletedCount++
			}
		}
		difficulty.Progress = percentage(difficulty.CompletedCount, difficulty.TotalCount)
		difficulty.Completed = difficulty.TotalCount > 0 && difficulty.CompletedCount == difficulty.TotalCount
	}
}

func percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func findDifficulty(progress *models.UserProgress, difficulty string) *models.DifficultyProgress {
	for i := range progress.Difficulties {
		if progress.Difficulties[i].Difficulty == difficulty {
			return &progress.Difficulties[i]
		}
	}
	return nil
}

func findCategory(dp *models.DifficultyProgress, categoryID string) *models.CategoryProgress {
	for i := range dp.Categories {
		if models.SameCategory(dp.Categories[i].CategoryID, categoryID) {
			return &dp.Categories[i]
		}
	}
	return nil
}

func findQuiz(cp *models.CategoryProgress, quizID string) *models.QuizProgress {
	for i := range cp.Quizzes {
		if cp.Quizzes[i].QuizID == quizID {
			return &cp.Quizzes[i]
		}
	}
	return nil
}

// IsQuizUnlocked reports whether a quiz can be played: the first quiz of a
// category always, later quizzes once their predecessor passed.
func (s *ProgressService) IsQuizUnlocked(uid, difficulty, categoryID, quizID string) (bool, error) {
	progress, err := s.GetUserProgress(uid, false)
	if err != nil {
		return false, err
	}

	if models.QuizIndex(quizID) <= 1 {
		return true, nil
	}

	dp := findDifficulty(progress, difficulty)
	if dp == nil {
		return false, nil
	}
	cp := findCategory(dp, categoryID)
	if cp == nil {
		return false, nil
	}

	prev := findQuiz(cp, models.PreviousQuizID(quizID))
	if prev == nil {
		return false, nil
	}
	return prev.Completed && prev.Score >= models.PassingScore, nil
}

// IsCategoryCompleted rederives completion from the quizzes rather than
// trusting the stored flag.
func (s *ProgressService) IsCategoryCompleted(uid, difficulty, categoryID string) (bool, error) {
	progress, err := s.GetUserProgress(uid, false)
	if err != nil {
		return false, err
	}
	dp := findDifficulty(progress, difficulty)
	if dp == nil {
		return false, nil
	}
	cp := findCategory(dp, categoryID)
	if cp == nil {
		return false, nil
	}
	return categoryCompleted(cp), nil
}

func categoryCompleted(cp *models.CategoryProgress) bool {
	if len(cp.Quizzes) == 0 {
		return false
	}
	for _, quiz := range cp.Quizzes {
		if !quiz.Completed || quiz.Score < models.PassingScore {
			return false
		}
	}
	return true
}

// IsCategoryUnlocked reports whether a category is playable: the first
// category always, later ones once the previous category in the canonical
// ordering is fully completed.
func (s *ProgressService) IsCategoryUnlocked(uid, difficulty, categoryID string) (bool, error) {
	prevID := models.PreviousCategoryID(categoryID)
	if prevID == "" {
		return true, nil
	}
	return s.IsCategoryCompleted(uid, difficulty, prevID)
}

// IsDifficultyUnlocked reports whether a difficulty tier is open
func (s *ProgressService) IsDifficultyUnlocked(uid, difficulty string) (bool, error) {
	progress, err := s.GetUserProgress(uid, false)
	if err != nil {
		return false, err
	}
	dp := findDifficulty(progress, difficulty)
	if dp == nil {
		return false, nil
	}
	return dp.Unlocked, nil
}

// IsCategoryStarted reports whether any quiz in the category was attempted
func (s *ProgressService) IsCategoryStarted(uid, difficulty, categoryID string) (bool, error) {
	progress, err := s.GetUserProgress(uid, false)
	if err != nil {
		return false, err
	}
	dp := findDifficulty(progress, difficulty)
	if dp == nil {
		return false, nil
	}
	cp := findCategory(dp, categoryID)
	if cp == nil {
		return false, nil
	}
	for _, quiz := range cp.Quizzes {
		if quiz.Completed || quiz.Score > 0 || quiz.LastAttemptDate > 0 {
			return true, nil
		}
	}
	return false, nil
}

// UpdateTotalXP adds a signed amount to the user's XP, clamped at zero
func (s *ProgressService) UpdateTotalXP(uid string, amount int) (bool, error) {
	progress, err := s.GetUserProgress(uid, true)
	if err != nil {
		return false, err
	}

	progress.TotalXP += amount
	if progress.TotalXP < 0 {
		progress.TotalXP = 0
	}

	if err := s.store.Set(progressPath(uid), progress); err != nil {
		return false, fmt.Errorf("failed to save progress for user %s: %w", uid, err)
	}
	s.setCache(uid, *progress)
	return true, nil
}

// MirrorHeartsCount keeps the denormalized heartsCount copy in sync with
// the hearts service.
func (s *ProgressService) MirrorHeartsCount(uid string, hearts int) error {
	if err := s.store.Update(progressPath(uid), map[string]interface{}{"heartsCount": hearts}); err != nil {
		return fmt.Errorf("failed to mirror hearts count for user %s: %w", uid, err)
	}
	return nil
}

// InvalidateCache drops the cached tree for a user
func (s *ProgressService) InvalidateCache(uid string) {
	s.mu.Lock()
	delete(s.cache, uid)
	s.mu.Unlock()
}

func (s *ProgressService) cachedProgress(uid string) (models.UserProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[uid]
	if !ok || s.now().Sub(entry.fetchedAt) > progressCacheTTL {
		return models.UserProgress{}, false
	}
	return entry.progress, true
}

func (s *ProgressService) setCache(uid string, progress models.UserProgress) {
	s.mu.Lock()
	s.cache[uid] = progressCacheEntry{progress: progress, fetchedAt: s.now()}
	s.mu.Unlock()
}
