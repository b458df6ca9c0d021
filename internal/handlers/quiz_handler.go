package handlers

import (
	"errors"
	"net/http"

	"meducare/internal/models"
	"meducare/internal/service"
	"meducare/internal/validation"
)

// QuizHandler handles the quiz catalog and attempt endpoints
type QuizHandler struct {
	quizzes  *service.QuizService
	progress *service.ProgressService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizzes *service.QuizService, progress *service.ProgressService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, progress: progress}
}

// questionView is a question with the answer key stripped out
type questionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// quizView is the client-facing quiz shape. Correct options and
// explanations never leave the server before the attempt is graded.
type quizView struct {
	ID           string         `json:"id"`
	Title        string         `json:"title,omitempty"`
	Description  string         `json:"description,omitempty"`
	Difficulty   string         `json:"difficulty"`
	CategoryID   string         `json:"categoryId"`
	XPReward     int            `json:"xpReward,omitempty"`
	HeartsReward int            `json:"heartsReward,omitempty"`
	Unlocked     bool           `json:"unlocked"`
	Questions    []questionView `json:"questions"`
}

func newQuizView(quiz *models.Quiz, unlocked bool) quizView {
	view := quizView{
		ID:           quiz.ID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		Difficulty:   quiz.Difficulty,
		CategoryID:   models.CanonicalCategoryID(quiz.CategoryID),
		XPReward:     quiz.XPReward,
		HeartsReward: quiz.HeartsReward,
		Unlocked:     unlocked,
	}
	for _, question := range quiz.Questions {
		view.Questions = append(view.Questions, questionView{
			ID:      question.ID,
			Text:    question.Text,
			Options: question.Options,
		})
	}
	return view
}

// categoryView groups a category's quizzes in the difficulty overview
type categoryView struct {
	CategoryID string     `json:"categoryId"`
	Unlocked   bool       `json:"unlocked"`
	Quizzes    []quizView `json:"quizzes"`
}

// ListDifficulty handles GET /api/quizzes/{difficulty}: the catalog of
// every category that has quizzes at this tier.
func (h *QuizHandler) ListDifficulty(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	difficulty := r.PathValue("difficulty")
	if err := validation.ValidateDifficulty(difficulty); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	categories := make([]categoryView, 0, len(models.CategoryIDs))
	for _, categoryID := range models.CategoryIDs {
		quizzes, err := h.quizzes.ListQuizzes(difficulty, categoryID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load quizzes", "difficulty catalog failed", err)
			return
		}
		if len(quizzes) == 0 {
			continue
		}

		unlocked, err := h.progress.IsCategoryUnlocked(uid, difficulty, categoryID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load quizzes", "category unlock check failed", err)
			return
		}

		view := categoryView{CategoryID: categoryID, Unlocked: unlocked}
		for i := range quizzes {
			quizUnlocked, err := h.progress.IsQuizUnlocked(uid, difficulty, categoryID, quizzes[i].ID)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, "Failed to load quizzes", "quiz unlock check failed", err)
				return
			}
			view.Quizzes = append(view.Quizzes, newQuizView(&quizzes[i], quizUnlocked))
		}
		categories = append(categories, view)
	}
	respondWithJSON(w, http.StatusOK, categories)
}

// List handles GET /api/quizzes/{difficulty}/{category}
func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	difficulty := r.PathValue("difficulty")
	categoryID := r.PathValue("category")
	if err := validation.ValidateDifficulty(difficulty); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	quizzes, err := h.quizzes.ListQuizzes(difficulty, categoryID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load quizzes", "quiz list failed", err)
		return
	}

	views := make([]quizView, 0, len(quizzes))
	for i := range quizzes {
		unlocked, err := h.progress.IsQuizUnlocked(uid, difficulty, categoryID, quizzes[i].ID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load quizzes", "quiz unlock check failed", err)
			return
		}
		views = append(views, newQuizView(&quizzes[i], unlocked))
	}
	respondWithJSON(w, http.StatusOK, views)
}

// Get handles GET /api/quizzes/{difficulty}/{category}/{quiz}
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	difficulty := r.PathValue("difficulty")
	categoryID := r.PathValue("category")
	quizID := r.PathValue("quiz")
	if err := validation.ValidateDifficulty(difficulty); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	quiz, err := h.quizzes.GetQuiz(difficulty, categoryID, quizID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load quiz", "quiz lookup failed", err)
		return
	}
	if quiz == nil {
		respondWithError(w, http.StatusNotFound, "Quiz not found", "", nil)
		return
	}

	unlocked, err := h.progress.IsQuizUnlocked(uid, difficulty, categoryID, quizID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load quiz", "quiz unlock check failed", err)
		return
	}
	if !unlocked {
		respondWithError(w, http.StatusForbidden, "Quiz is locked", "", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, newQuizView(quiz, true))
}

// SubmitAttempt handles POST /api/quizzes/{difficulty}/{category}/{quiz}/attempts
func (h *QuizHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	difficulty := r.PathValue("difficulty")
	categoryID := r.PathValue("category")
	quizID := r.PathValue("quiz")
	if err := validation.ValidateDifficulty(difficulty); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	var req struct {
		Answers         []int `json:"answers"`
		DurationSeconds int   `json:"durationSeconds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	outcome, err := h.quizzes.SubmitAttempt(uid, difficulty, categoryID, quizID, req.Answers, req.DurationSeconds)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoHeartsLeft):
			respondWithError(w, http.StatusForbidden, "No hearts left", "", nil)
		case errors.Is(err, service.ErrQuizNotFound):
			respondWithError(w, http.StatusNotFound, "Quiz not found", "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to submit attempt", "attempt submission failed", err)
		}
		return
	}
	respondWithJSON(w, http.StatusOK, outcome)
}

// ListAttempts handles GET /api/attempts
func (h *QuizHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated", "", nil)
		return
	}

	attempts, err := h.quizzes.ListAttempts(uid)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load attempts", "attempt list failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, attempts)
}
