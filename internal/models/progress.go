package models

// UserProgress is the per-user progress tree stored at userProgress/{uid}
type UserProgress struct {
	TotalXP      int                  `json:"totalXP"`
	HeartsCount  int                  `json:"heartsCount"`
	Difficulties []DifficultyProgress `json:"difficulties"`
}

// DifficultyProgress is one tier of the progress tree
type DifficultyProgress struct {
	Difficulty     string             `json:"difficulty"`
	Unlocked       bool               `json:"unlocked"`
	Categories     []CategoryProgress `json:"categories"`
	CompletedCount int                `json:"completedCount"`
	TotalCount     int                `json:"totalCount"`
	Progress       int                `json:"progress"`
	Completed      bool               `json:"completed"`
}

// CategoryProgress groups the quizzes of one disease category
type CategoryProgress struct {
	CategoryID     string         `json:"categoryId"`
	Quizzes        []QuizProgress `json:"quizzes"`
	CompletedCount int            `json:"completedCount"`
	TotalCount     int            `json:"totalCount"`
	Progress       int            `json:"progress"`
	Completed      bool           `json:"completed"`
}

// QuizProgress records completion state for one quiz.
// LastAttemptDate is epoch milliseconds, 0 when never attempted.
type QuizProgress struct {
	QuizID          string `json:"quizId"`
	Completed       bool   `json:"completed"`
	Score           int    `json:"score"`
	LastAttemptDate int64  `json:"lastAttemptDate,omitempty"`
}

// QuizUpdateResult is what a progress update reports back to the caller
type QuizUpdateResult struct {
	Success          bool `json:"success"`
	XPGained         int  `json:"xpGained"`
	LevelCompleted   bool `json:"levelCompleted"`
	NextQuizUnlocked bool `json:"nextQuizUnlocked"`
}

// DifficultyCompletionBonus is the flat XP awarded the first time a
// difficulty tier is completed.
const DifficultyCompletionBonus = 1000
