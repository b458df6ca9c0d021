package service

import (
	"encoding/json"

	"meducare/internal/repository"
)

// DocStore is the slice of the document store the game services need.
// Satisfied by *repository.DocumentStore; tests substitute an in-memory fake.
type DocStore interface {
	Get(path string) (json.RawMessage, error)
	GetInto(path string, v interface{}) (bool, error)
	Set(path string, v interface{}) error
	Update(path string, fields map[string]interface{}) error
	List(parent string) ([]repository.Document, error)
}
