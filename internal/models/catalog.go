package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Difficulties is the fixed tier ordering. Completing one tier unlocks the next.
var Difficulties = []string{"facile", "moyen", "difficile"}

const categoryPrefix = "maladies_"

// CategoryIDs is the canonical ordered list of quiz categories. The order
// gates category unlocking: a category opens once the previous one is
// fully completed.
var CategoryIDs = []string{
	"maladies_cardiovasculaires",
	"maladies_respiratoires",
	"maladies_digestives",
	"maladies_endocriniennes",
	"maladies_autoimmunes",
	"maladies_infectieuses",
	"maladies_musculosquelettiques",
	"maladies_neurologiques",
	"maladies_dermatologiques",
	"maladies_hematologiques",
}

// IsValidDifficulty reports whether d is one of the three known tiers
func IsValidDifficulty(d string) bool {
	for _, known := range Difficulties {
		if known == d {
			return true
		}
	}
	return false
}

// NextDifficulty returns the tier after d, or "" when d is the last one
func NextDifficulty(d string) string {
	for i, known := range Difficulties {
		if known == d && i+1 < len(Difficulties) {
			return Difficulties[i+1]
		}
	}
	return ""
}

// CanonicalCategoryID maps legacy bare category IDs ("cardiovasculaires")
// to the prefixed convention ("maladies_cardiovasculaires"). Unknown IDs
// pass through unchanged.
func CanonicalCategoryID(id string) string {
	if strings.HasPrefix(id, categoryPrefix) {
		return id
	}
	return categoryPrefix + id
}

// BaseCategoryID strips the "maladies_" prefix, yielding the legacy short form
func BaseCategoryID(id string) string {
	return strings.TrimPrefix(id, categoryPrefix)
}

// SameCategory reports whether two category IDs refer to the same category,
// tolerating the two historical naming conventions.
func SameCategory(a, b string) bool {
	return CanonicalCategoryID(a) == CanonicalCategoryID(b)
}

// PreviousCategoryID returns the category that precedes id in the canonical
// ordering, or "" when id is first or unknown.
func PreviousCategoryID(id string) string {
	canonical := CanonicalCategoryID(id)
	for i, known := range CategoryIDs {
		if known == canonical {
			if i == 0 {
				return ""
			}
			return CategoryIDs[i-1]
		}
	}
	return ""
}

var (
	trailingIndexRegexp = regexp.MustCompile(`_(\d+)$`)
	anyDigitsRegexp     = regexp.MustCompile(`(\d+)`)
)

// QuizIndex extracts the 1-based sequence index embedded in a quiz ID
// ("maladies_cardiovasculaires_quiz_2" -> 2). IDs not following the
// convention degrade to index 1.
func QuizIndex(quizID string) int {
	if m := trailingIndexRegexp.FindStringSubmatch(quizID); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := anyDigitsRegexp.FindStringSubmatch(quizID); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 1
}

// NextQuizID returns the ID of the quiz that follows quizID in its sequence
func NextQuizID(quizID string) string {
	return replaceQuizIndex(quizID, QuizIndex(quizID)+1)
}

// PreviousQuizID returns the quiz before quizID, or "" for the first quiz
func PreviousQuizID(quizID string) string {
	index := QuizIndex(quizID)
	if index <= 1 {
		return ""
	}
	return replaceQuizIndex(quizID, index-1)
}

func replaceQuizIndex(quizID string, index int) string {
	if trailingIndexRegexp.MatchString(quizID) {
		return trailingIndexRegexp.ReplaceAllString(quizID, fmt.Sprintf("_%d", index))
	}
	return fmt.Sprintf("%s_%d", quizID, index)
}
