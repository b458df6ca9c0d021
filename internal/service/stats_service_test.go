package service

import (
	"testing"

	"meducare/internal/models"
)

func TestRecordQuizAccumulates(t *testing.T) {
	svc := NewStatsService(newFakeStore())

	if _, err := svc.RecordQuiz("u1", 4, 5, 40); err != nil {
		t.Fatalf("RecordQuiz: %v", err)
	}
	stats, err := svc.RecordQuiz("u1", 3, 3, 44)
	if err != nil {
		t.Fatalf("RecordQuiz: %v", err)
	}

	if stats.TotalQuizzes != 2 {
		t.Errorf("TotalQuizzes = %d, want 2", stats.TotalQuizzes)
	}
	if stats.TotalGoodAnswers != 7 {
		t.Errorf("TotalGoodAnswers = %d, want 7", stats.TotalGoodAnswers)
	}
	if stats.TotalQuestionsAttempted != 8 {
		t.Errorf("TotalQuestionsAttempted = %d, want 8", stats.TotalQuestionsAttempted)
	}
	if len(stats.QuizDurations) != 2 {
		t.Errorf("QuizDurations = %v, want 2 entries", stats.QuizDurations)
	}

	// Reloaded stats match what RecordQuiz returned
	reloaded, err := svc.GetStats("u1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if reloaded.TotalGoodAnswers != 7 {
		t.Errorf("reloaded TotalGoodAnswers = %d, want 7", reloaded.TotalGoodAnswers)
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		stats *models.UserStats
		want  string
	}{
		{"nil stats", nil, "0%"},
		{"no questions", &models.UserStats{}, "0%"},
		{"seven of eight", &models.UserStats{TotalGoodAnswers: 7, TotalQuestionsAttempted: 8}, "87.5%"},
		{"perfect", &models.UserStats{TotalGoodAnswers: 5, TotalQuestionsAttempted: 5}, "100.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accuracy(tt.stats); got != tt.want {
				t.Errorf("Accuracy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAverageDuration(t *testing.T) {
	tests := []struct {
		name  string
		stats *models.UserStats
		want  string
	}{
		{"nil stats", nil, "0s"},
		{"no durations", &models.UserStats{}, "0s"},
		{"single", &models.UserStats{QuizDurations: []int{42}}, "42s"},
		{"rounded mean", &models.UserStats{QuizDurations: []int{40, 45}}, "43s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageDuration(tt.stats); got != tt.want {
				t.Errorf("AverageDuration = %q, want %q", got, tt.want)
			}
		})
	}
}
