package repository

import (
	"path/filepath"
	"testing"

	"meducare/internal/database"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping sqlite-backed test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE documents (
			path TEXT PRIMARY KEY,
			parent TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return NewDocumentStore(db)
}

func TestPathSplit(t *testing.T) {
	tests := []struct {
		path       string
		wantParent string
		wantID     string
	}{
		{"userHearts/42", "userHearts", "42"},
		{"quizzes/facile/maladies_cardiovasculaires/quiz_1", "quizzes/facile/maladies_cardiovasculaires", "quiz_1"},
		{"single", "", "single"},
	}

	for _, tt := range tests {
		parent, id := splitPath(tt.path)
		if parent != tt.wantParent || id != tt.wantID {
			t.Errorf("splitPath(%q) = (%q, %q), want (%q, %q)", tt.path, parent, id, tt.wantParent, tt.wantID)
		}
	}

	if got := Path("quizzes", "facile", "quiz_1"); got != "quizzes/facile/quiz_1" {
		t.Errorf("Path = %q, want quizzes/facile/quiz_1", got)
	}
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	type hearts struct {
		Remaining int `json:"remainingHearts"`
		Max       int `json:"maxHearts"`
	}

	path := Path("userHearts", "42")
	if err := store.Set(path, hearts{Remaining: 3, Max: 5}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got hearts
	found, err := store.GetInto(path, &got)
	if err != nil {
		t.Fatalf("GetInto: %v", err)
	}
	if !found {
		t.Fatal("document not found after Set")
	}
	if got.Remaining != 3 || got.Max != 5 {
		t.Errorf("document = %+v, want remaining 3 of 5", got)
	}

	// Set overwrites in place
	if err := store.Set(path, hearts{Remaining: 5, Max: 5}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := store.GetInto(path, &got); err != nil {
		t.Fatalf("GetInto: %v", err)
	}
	if got.Remaining != 5 {
		t.Errorf("Remaining = %d, want 5 after overwrite", got.Remaining)
	}
}

func TestDocumentStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	data, err := store.Get("userHearts/ghost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data != nil {
		t.Errorf("data = %s, want nil for a missing document", data)
	}

	var v map[string]interface{}
	found, err := store.GetInto("userHearts/ghost", &v)
	if err != nil {
		t.Fatalf("GetInto: %v", err)
	}
	if found {
		t.Error("found = true for a missing document")
	}
}

func TestDocumentStoreUpdateMerges(t *testing.T) {
	store := newTestStore(t)

	path := Path("userProgress", "42")
	if err := store.Set(path, map[string]interface{}{"totalXP": 100, "heartsCount": 5}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Update(path, map[string]interface{}{"heartsCount": 3}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var got map[string]interface{}
	if _, err := store.GetInto(path, &got); err != nil {
		t.Fatalf("GetInto: %v", err)
	}
	if got["heartsCount"].(float64) != 3 {
		t.Errorf("heartsCount = %v, want 3", got["heartsCount"])
	}
	if got["totalXP"].(float64) != 100 {
		t.Errorf("totalXP = %v, want 100 untouched by the merge", got["totalXP"])
	}

	// Updating a missing document creates it
	if err := store.Update(Path("userProgress", "43"), map[string]interface{}{"totalXP": 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	found, err := store.GetInto(Path("userProgress", "43"), &got)
	if err != nil || !found {
		t.Fatalf("GetInto after create-by-update: found=%v err=%v", found, err)
	}
}

func TestDocumentStoreListAndDelete(t *testing.T) {
	store := newTestStore(t)

	parent := Path("quizzes", "facile", "maladies_cardiovasculaires")
	for _, id := range []string{"quiz_2", "quiz_1"} {
		if err := store.Set(Path(parent, id), map[string]string{"id": id}); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	// A grandchild must not appear in the parent listing
	if err := store.Set(Path(parent, "quiz_1", "extra"), map[string]string{}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	docs, err := store.List(parent)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("List = %d docs, want 2", len(docs))
	}
	if docs[0].ID != "quiz_1" || docs[1].ID != "quiz_2" {
		t.Errorf("List order = %s, %s, want quiz_1, quiz_2", docs[0].ID, docs[1].ID)
	}

	if err := store.Delete(Path(parent, "quiz_1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	docs, err = store.List(parent)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "quiz_2" {
		t.Errorf("List after delete = %+v, want only quiz_2", docs)
	}

	// Deleting a missing document is not an error
	if err := store.Delete(Path(parent, "quiz_9")); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestDocumentStoreExport(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("userHearts/1", map[string]int{"remainingHearts": 5}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("userStreaks/1", map[string]int{"currentStreak": 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	docs, err := store.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Export = %d docs, want 2", len(docs))
	}
	if docs[0].Path != "userHearts/1" || docs[1].Path != "userStreaks/1" {
		t.Errorf("Export order = %s, %s, want path order", docs[0].Path, docs[1].Path)
	}
}
