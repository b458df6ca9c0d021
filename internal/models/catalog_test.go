package models

import "testing"

func TestCanonicalCategoryID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"legacy short form", "cardiovasculaires", "maladies_cardiovasculaires"},
		{"already prefixed", "maladies_respiratoires", "maladies_respiratoires"},
		{"unknown id", "autre", "maladies_autre"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalCategoryID(tt.input); got != tt.expected {
				t.Errorf("CanonicalCategoryID(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSameCategory(t *testing.T) {
	if !SameCategory("cardiovasculaires", "maladies_cardiovasculaires") {
		t.Error("short and prefixed forms should match")
	}
	if SameCategory("cardiovasculaires", "respiratoires") {
		t.Error("distinct categories should not match")
	}
}

func TestPreviousCategoryID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"first category has no predecessor", "maladies_cardiovasculaires", ""},
		{"second category", "maladies_respiratoires", "maladies_cardiovasculaires"},
		{"legacy form resolves", "digestives", "maladies_respiratoires"},
		{"unknown category", "maladies_inconnues", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreviousCategoryID(tt.input); got != tt.expected {
				t.Errorf("PreviousCategoryID(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestQuizIndex(t *testing.T) {
	tests := []struct {
		name     string
		quizID   string
		expected int
	}{
		{"trailing index", "maladies_cardiovasculaires_quiz_2", 2},
		{"double digit", "maladies_digestives_quiz_12", 12},
		{"embedded digits fallback", "quiz3final", 3},
		{"no digits degrades to 1", "introduction", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuizIndex(tt.quizID); got != tt.expected {
				t.Errorf("QuizIndex(%q) = %d, want %d", tt.quizID, got, tt.expected)
			}
		})
	}
}

func TestNextAndPreviousQuizID(t *testing.T) {
	if got := NextQuizID("maladies_cardiovasculaires_quiz_1"); got != "maladies_cardiovasculaires_quiz_2" {
		t.Errorf("NextQuizID = %q", got)
	}
	if got := PreviousQuizID("maladies_cardiovasculaires_quiz_2"); got != "maladies_cardiovasculaires_quiz_1" {
		t.Errorf("PreviousQuizID = %q", got)
	}
	if got := PreviousQuizID("maladies_cardiovasculaires_quiz_1"); got != "" {
		t.Errorf("first quiz should have no predecessor, got %q", got)
	}
}

func TestNextDifficulty(t *testing.T) {
	if got := NextDifficulty("facile"); got != "moyen" {
		t.Errorf("NextDifficulty(facile) = %q", got)
	}
	if got := NextDifficulty("difficile"); got != "" {
		t.Errorf("last difficulty should have no successor, got %q", got)
	}
	if got := NextDifficulty("unknown"); got != "" {
		t.Errorf("unknown difficulty should have no successor, got %q", got)
	}
}
