package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"meducare/internal/database"
)

// Document is a child entry returned by List
type Document struct {
	ID   string
	Data json.RawMessage
}

// StoredDocument is a full row of the documents table, used by backup tooling
type StoredDocument struct {
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

// DocumentStore is a keyed-document store over the documents table.
// Keys are hierarchical slash-joined paths such as "userHearts/42" or
// "quizzes/facile/maladies_cardiovasculaires/quiz_1".
type DocumentStore struct {
	db database.DBTX
}

// NewDocumentStore creates a document store backed by db
func NewDocumentStore(db database.DBTX) *DocumentStore {
	return &DocumentStore{db: db}
}

// Path joins key segments into a document path
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// splitPath separates a path into its parent and final segment
func splitPath(path string) (parent, docID string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// Get returns the raw document at path, or nil when it does not exist
func (s *DocumentStore) Get(path string) (json.RawMessage, error) {
	var data []byte
	query := "SELECT data FROM documents WHERE path = ?"
	err := s.db.QueryRow(query, path).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", path, err)
	}
	return json.RawMessage(data), nil
}

// GetInto reads the document at path into v. It reports whether the
// document existed.
func (s *DocumentStore) GetInto(path string, v interface{}) (bool, error) {
	data, err := s.Get(path)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return true, nil
}

// Set writes v as the full document at path, overwriting any previous value
func (s *DocumentStore) Set(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", path, err)
	}
	return s.SetRaw(path, data)
}

// SetRaw writes pre-encoded JSON as the full document at path
func (s *DocumentStore) SetRaw(path string, data json.RawMessage) error {
	parent, docID := splitPath(path)
	query := s.db.GetDialect().UpsertDocument()
	if _, err := s.db.Exec(query, path, parent, docID, []byte(data)); err != nil {
		return fmt.Errorf("failed to set document %s: %w", path, err)
	}
	return nil
}

// Update performs a shallow merge of fields into the document at path.
// A missing document is created from the fields alone.
func (s *DocumentStore) Update(path string, fields map[string]interface{}) error {
	existing, err := s.Get(path)
	if err != nil {
		return err
	}

	merged := make(map[string]interface{})
	if existing != nil {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return fmt.Errorf("failed to decode document %s: %w", path, err)
		}
	}
	for k, v := range fields {
		merged[k] = v
	}

	return s.Set(path, merged)
}

// List returns the direct children of parent, ordered by document ID
func (s *DocumentStore) List(parent string) ([]Document, error) {
	query := "SELECT doc_id, data FROM documents WHERE parent = ? ORDER BY doc_id"
	rows, err := s.db.Query(query, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents under %s: %w", parent, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.ID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Data = json.RawMessage(data)
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Delete removes the document at path. Deleting a missing document is not
// an error.
func (s *DocumentStore) Delete(path string) error {
	query := "DELETE FROM documents WHERE path = ?"
	if _, err := s.db.Exec(query, path); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	return nil
}

// Export returns every stored document ordered by path
func (s *DocumentStore) Export() ([]StoredDocument, error) {
	query := "SELECT path, data FROM documents ORDER BY path"
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to export documents: %w", err)
	}
	defer rows.Close()

	var docs []StoredDocument
	for rows.Next() {
		var doc StoredDocument
		var data []byte
		if err := rows.Scan(&doc.Path, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Data = json.RawMessage(data)
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}
