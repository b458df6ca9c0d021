package models

// XPPerCorrectAnswer is the base reward for each correctly answered question
const XPPerCorrectAnswer = 20

// Quiz is a catalog document stored at quizzes/{difficulty}/{category}/{quizId}
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Difficulty   string     `json:"difficulty"`
	CategoryID   string     `json:"categoryId"`
	Questions    []Question `json:"questions"`
	XPReward     int        `json:"xpReward,omitempty"`
	HeartsReward int        `json:"heartsReward,omitempty"`
}

// Question is one multiple-choice entry of a quiz
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizAttempt is a completed attempt stored at quizAttempts/{uid}/{attemptId}
type QuizAttempt struct {
	ID          string `json:"id"`
	QuizID      string `json:"quizId"`
	Difficulty  string `json:"difficulty"`
	CategoryID  string `json:"categoryId"`
	Score       int    `json:"score"`
	Correct     int    `json:"correct"`
	Total       int    `json:"total"`
	EarnedXP    int    `json:"earnedXP"`
	HeartsDelta int    `json:"heartsDelta"`
	Duration    int    `json:"duration"` // seconds
	CompletedAt int64  `json:"completedAt"`
}

// QuizResult is the graded outcome of a set of answers
type QuizResult struct {
	Score    int `json:"score"` // percentage 0-100
	Correct  int `json:"correct"`
	Total    int `json:"total"`
	EarnedXP int `json:"earnedXP"`
}
