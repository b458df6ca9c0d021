package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"meducare/internal/repository"
)

// fakeStore is an in-memory DocStore used across the service tests
type fakeStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage

	// failure injection
	getErr  error
	setErr  error
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]json.RawMessage)}
}

func (f *fakeStore) Get(path string) (json.RawMessage, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.docs[path]
	if !ok {
		return nil, nil
	}
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out, nil
}

func (f *fakeStore) GetInto(path string, v interface{}) (bool, error) {
	data, err := f.Get(path)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeStore) Set(path string, v interface{}) error {
	if f.setErr != nil {
		return f.setErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.docs[path] = data
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) Update(path string, fields map[string]interface{}) error {
	existing, err := f.Get(path)
	if err != nil {
		return err
	}
	merged := make(map[string]interface{})
	if existing != nil {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return err
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return f.Set(path, merged)
}

func (f *fakeStore) List(parent string) ([]repository.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var docs []repository.Document
	prefix := parent + "/"
	for path, data := range f.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		id := strings.TrimPrefix(path, prefix)
		if strings.Contains(id, "/") {
			continue
		}
		out := make(json.RawMessage, len(data))
		copy(out, data)
		docs = append(docs, repository.Document{ID: id, Data: out})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// seedQuiz puts a minimal quiz document into the catalog
func (f *fakeStore) seedQuiz(difficulty, categoryID, quizID string, questions int) {
	quiz := map[string]interface{}{
		"id":         quizID,
		"difficulty": difficulty,
		"categoryId": categoryID,
	}
	var qs []map[string]interface{}
	for i := 0; i < questions; i++ {
		qs = append(qs, map[string]interface{}{
			"id":            fmt.Sprintf("q%d", i+1),
			"text":          fmt.Sprintf("question %d", i+1),
			"options":       []string{"a", "b", "c", "d"},
			"correctOption": 0,
		})
	}
	quiz["questions"] = qs
	_ = f.Set(repository.Path("quizzes", difficulty, categoryID, quizID), quiz)
}
