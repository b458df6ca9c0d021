package models

// Streak is the per-user daily streak document at userStreaks/{uid}.
// LastQuizDate is a YYYY-MM-DD day string in the user's clock.
type Streak struct {
	CurrentStreak int    `json:"currentStreak"`
	LastQuizDate  string `json:"lastQuizDate"`
	HighestStreak int    `json:"highestStreak"`
}

// UserStats is the per-user aggregate document at userStats/{uid}
type UserStats struct {
	TotalQuizzes            int   `json:"totalQuizzes"`
	TotalGoodAnswers        int   `json:"totalGoodAnswers"`
	TotalQuestionsAttempted int   `json:"totalQuestionsAttempted"`
	QuizDurations           []int `json:"quizDurations"` // seconds per quiz
}
