package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"meducare/internal/models"
	"meducare/internal/repository"
)

const (
	regenerationPeriod = time.Hour
	heartCacheTTL      = 5 * time.Minute
)

// progressMirror is the slice of the progress tracker the hearts service
// needs to keep the denormalized heartsCount copy in sync.
type progressMirror interface {
	MirrorHeartsCount(uid string, hearts int) error
	InvalidateCache(uid string)
}

type heartCacheEntry struct {
	state     models.HeartState
	fetchedAt time.Time
}

// HeartsService tracks the per-user consumable hearts with hourly
// regeneration. Reads go through a short per-user cache; every mutation
// replaces the cached entry with the post-mutation state.
type HeartsService struct {
	store    DocStore
	progress progressMirror
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]heartCacheEntry
}

// NewHeartsService creates a hearts service over store
func NewHeartsService(store DocStore) *HeartsService {
	return &HeartsService{
		store: store,
		now:   time.Now,
		cache: make(map[string]heartCacheEntry),
	}
}

// SetProgressMirror wires the progress tracker in after construction,
// breaking the construction cycle between the two services.
func (s *HeartsService) SetProgressMirror(m progressMirror) {
	s.progress = m
}

// SetClock overrides the time source, used by tests
func (s *HeartsService) SetClock(now func() time.Time) {
	s.now = now
}

func heartsPath(uid string) string {
	return repository.Path("userHearts", uid)
}

// GetHeartInfo returns the user's heart state with regeneration applied.
// A missing record is lazily created with full hearts.
func (s *HeartsService) GetHeartInfo(uid string, forceRefresh bool) (*models.HeartState, error) {
	if !forceRefresh {
		if cached, ok := s.cachedState(uid); ok {
			state, changed := projectRegeneration(cached, s.now())
			if changed {
				s.persist(uid, state)
			} else {
				s.setCache(uid, state)
			}
			return &state, nil
		}
	}

	var state models.HeartState
	found, err := s.store.GetInto(heartsPath(uid), &state)
	if err != nil {
		return nil, fmt.Errorf("failed to load hearts for user %s: %w", uid, err)
	}

	if !found {
		state = *models.NewHeartState()
		if err := s.store.Set(heartsPath(uid), &state); err != nil {
			return nil, fmt.Errorf("failed to initialize hearts for user %s: %w", uid, err)
		}
	}
	normalizeHeartState(&state)

	projected, changed := projectRegeneration(state, s.now())
	if changed {
		s.persist(uid, projected)
	} else {
		s.setCache(uid, projected)
	}
	return &projected, nil
}

// normalizeHeartState coerces malformed stored records into usable shape
func normalizeHeartState(state *models.HeartState) {
	if state.MaxHearts <= 0 {
		state.MaxHearts = models.MaxHearts
	}
	if state.RemainingHearts < 0 {
		state.RemainingHearts = 0
	}
	if state.RemainingHearts > state.MaxHearts {
		state.RemainingHearts = state.MaxHearts
	}
}

// projectRegeneration applies elapsed-time regeneration to a heart state.
// It is a pure function of the state and now, idempotent at an instant.
func projectRegeneration(state models.HeartState, now time.Time) (models.HeartState, bool) {
	nowMs := now.UnixMilli()
	periodMs := regenerationPeriod.Milliseconds()

	if state.RemainingHearts >= state.MaxHearts ||
		(state.NextRegenerationTime == 0 && state.RegenStartTime == nil) {
		return state, false
	}

	// Zero hearts regenerate a single heart after one full period,
	// no matter how much longer the user stayed away.
	if state.RemainingHearts == 0 && state.RegenStartTime != nil {
		if nowMs-*state.RegenStartTime >= periodMs {
			state.RemainingHearts = 1
			state.NextRegenerationTime = 0
			state.RegenStartTime = nil
			return state, true
		}
		return state, false
	}

	if state.NextRegenerationTime > 0 && nowMs >= state.NextRegenerationTime {
		sinceFirst := nowMs - state.NextRegenerationTime + periodMs
		regenerated := int(sinceFirst/periodMs) + 1
		if missing := state.MaxHearts - state.RemainingHearts; regenerated > missing {
			regenerated = missing
		}

		state.RemainingHearts += regenerated
		if state.RemainingHearts < state.MaxHearts {
			state.NextRegenerationTime = nowMs + (periodMs - sinceFirst%periodMs)
		} else {
			state.NextRegenerationTime = 0
		}
		state.RegenStartTime = nil
		return state, true
	}

	return state, false
}

// ConsumeHearts removes hearts, scheduling regeneration when leaving full
// capacity and marking the regeneration start when reaching zero.
func (s *HeartsService) ConsumeHearts(uid string, amount int, updateMainProgress bool) (bool, error) {
	state, err := s.GetHeartInfo(uid, true)
	if err != nil {
		return false, err
	}

	nowMs := s.now().UnixMilli()
	remaining := state.RemainingHearts - amount
	if remaining < 0 {
		remaining = 0
	}

	next := state.NextRegenerationTime
	regenStart := state.RegenStartTime

	// First hearts lost below capacity start the regeneration countdown
	if remaining > 0 && remaining < state.MaxHearts && state.NextRegenerationTime == 0 {
		next = nowMs + regenerationPeriod.Milliseconds()
	}
	if remaining == 0 && regenStart == nil {
		start := nowMs
		regenStart = &start
		next = nowMs + regenerationPeriod.Milliseconds()
	}

	updated := models.HeartState{
		RemainingHearts:      remaining,
		MaxHearts:            state.MaxHearts,
		NextRegenerationTime: next,
		RegenStartTime:       regenStart,
	}

	if err := s.store.Set(heartsPath(uid), &updated); err != nil {
		return false, fmt.Errorf("failed to save hearts for user %s: %w", uid, err)
	}
	s.setCache(uid, updated)

	if updateMainProgress {
		s.mirrorHearts(uid, updated.RemainingHearts)
	}
	return true, nil
}

// AddHearts grants hearts up to capacity, clearing regeneration scheduling
// once full.
func (s *HeartsService) AddHearts(uid string, amount int) (bool, error) {
	state, err := s.GetHeartInfo(uid, true)
	if err != nil {
		return false, err
	}

	remaining := state.RemainingHearts + amount
	if remaining > state.MaxHearts {
		remaining = state.MaxHearts
	}

	next := state.NextRegenerationTime
	if remaining == state.MaxHearts {
		next = 0
	}

	regenStart := state.RegenStartTime
	if remaining > 0 {
		regenStart = nil
	}

	updated := models.HeartState{
		RemainingHearts:      remaining,
		MaxHearts:            state.MaxHearts,
		NextRegenerationTime: next,
		RegenStartTime:       regenStart,
	}

	if err := s.store.Set(heartsPath(uid), &updated); err != nil {
		return false, fmt.Errorf("failed to save hearts for user %s: %w", uid, err)
	}
	s.setCache(uid, updated)
	s.mirrorHearts(uid, updated.RemainingHearts)

	return true, nil
}

// HandleQuizCompletion applies the quiz-outcome heart policy and returns
// the signed heart delta.
func (s *HeartsService) HandleQuizCompletion(uid string, score int) (int, error) {
	if score >= models.PassingScore {
		if _, err := s.AddHearts(uid, models.HeartsPerWin); err != nil {
			return 0, err
		}
		return models.HeartsPerWin, nil
	}

	if _, err := s.ConsumeHearts(uid, models.HeartsPerLoss, true); err != nil {
		return 0, err
	}
	return -models.HeartsPerLoss, nil
}

// TimeUntilNextHeart returns how long until the next heart becomes
// available, or 0 when no regeneration is pending.
func (s *HeartsService) TimeUntilNextHeart(uid string) (time.Duration, error) {
	state, err := s.GetHeartInfo(uid, false)
	if err != nil {
		return 0, err
	}

	nowMs := s.now().UnixMilli()

	if state.RemainingHearts == 0 && state.RegenStartTime != nil {
		remaining := *state.RegenStartTime + regenerationPeriod.Milliseconds() - nowMs
		if remaining < 0 {
			remaining = 0
		}
		return time.Duration(remaining) * time.Millisecond, nil
	}

	if state.NextRegenerationTime == 0 {
		return 0, nil
	}

	remaining := state.NextRegenerationTime - nowMs
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining) * time.Millisecond, nil
}

// FormattedTimeUntilNextHeart renders the countdown as "1h 05m 03s" above
// an hour and "MM:SS" below, or "" when nothing is pending.
func (s *HeartsService) FormattedTimeUntilNextHeart(uid string) (string, error) {
	d, err := s.TimeUntilNextHeart(uid)
	if err != nil {
		return "", err
	}
	return formatCountdown(d), nil
}

func formatCountdown(d time.Duration) string {
	if d == 0 {
		return ""
	}

	totalSeconds := int(d / time.Second)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// CanPlayQuiz reports whether the user has at least one heart left
func (s *HeartsService) CanPlayQuiz(uid string) (bool, error) {
	state, err := s.GetHeartInfo(uid, true)
	if err != nil {
		return false, err
	}
	return state.RemainingHearts > 0, nil
}

// InvalidateCache drops the cached state for a user
func (s *HeartsService) InvalidateCache(uid string) {
	s.mu.Lock()
	delete(s.cache, uid)
	s.mu.Unlock()
}

func (s *HeartsService) cachedState(uid string) (models.HeartState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[uid]
	if !ok || s.now().Sub(entry.fetchedAt) > heartCacheTTL {
		return models.HeartState{}, false
	}
	return entry.state, true
}

func (s *HeartsService) setCache(uid string, state models.HeartState) {
	s.mu.Lock()
	s.cache[uid] = heartCacheEntry{state: state, fetchedAt: s.now()}
	s.mu.Unlock()
}

// persist saves a regenerated state and mirrors it into the progress
// record. Failures are logged; the projected state is still served.
func (s *HeartsService) persist(uid string, state models.HeartState) {
	if err := s.store.Set(heartsPath(uid), &state); err != nil {
		log.Printf("failed to persist regenerated hearts for user %s: %v", uid, err)
		return
	}
	s.setCache(uid, state)
	s.mirrorHearts(uid, state.RemainingHearts)
}

func (s *HeartsService) mirrorHearts(uid string, hearts int) {
	if s.progress == nil {
		return
	}
	if err := s.progress.MirrorHeartsCount(uid, hearts); err != nil {
		log.Printf("failed to mirror hearts count for user %s: %v", uid, err)
		return
	}
	s.progress.InvalidateCache(uid)
}
