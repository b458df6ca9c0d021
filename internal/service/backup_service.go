package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"meducare/internal/database"
	"meducare/internal/repository"
)

// BackupData is the complete backup structure: the relational account
// tables plus every document collection.
type BackupData struct {
	Version    string                      `json:"version"`
	ExportedAt time.Time                   `json:"exported_at"`
	Users      []UserBackup                `json:"users"`
	Documents  []repository.StoredDocument `json:"documents"`
}

// UserBackup is a user row in a backup file
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BackupService handles export and import of the full data set
type BackupService struct {
	db    *database.DB
	users *repository.UserRepository
	docs  *repository.DocumentStore
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:    db,
		users: repository.NewUserRepository(db),
		docs:  repository.NewDocumentStore(db),
	}
}

// Export writes the full data set to a JSON file
func (s *BackupService) Export(outputPath string) error {
	users, err := s.users.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}

	backup := BackupData{
		Version:    "1",
		ExportedAt: time.Now(),
	}
	for _, user := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            user.ID,
			Email:         user.Email,
			PasswordHash:  user.PasswordHash,
			Name:          user.Name,
			OAuthProvider: user.OAuthProvider,
			OAuthSubject:  user.OAuthSubject,
			IsAdmin:       user.IsAdmin,
			CreatedAt:     user.CreatedAt,
			UpdatedAt:     user.UpdatedAt,
		})
	}

	docs, err := s.docs.Export()
	if err != nil {
		return fmt.Errorf("failed to export documents: %w", err)
	}
	backup.Documents = docs

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&backup); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	log.Printf("Exported %d users and %d documents", len(backup.Users), len(backup.Documents))
	return nil
}

// Import loads a backup file into the database. Existing users are
// matched by email and skipped; documents are upserted by path.
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}

	imported, skipped := 0, 0
	for _, user := range backup.Users {
		existing, err := s.users.GetUserByEmail(user.Email)
		if err != nil {
			return fmt.Errorf("failed to check user %s: %w", user.Email, err)
		}
		if existing != nil {
			skipped++
			continue
		}
		created, err := s.users.CreateUser(user.Email, user.PasswordHash, user.Name)
		if err != nil {
			return fmt.Errorf("failed to import user %s: %w", user.Email, err)
		}
		if user.OAuthProvider != "" {
			if err := s.users.LinkOAuthProvider(created.ID, user.OAuthProvider, user.OAuthSubject); err != nil {
				log.Printf("failed to restore oauth link for %s: %v", user.Email, err)
			}
		}
		imported++
	}

	for _, doc := range backup.Documents {
		if err := s.docs.SetRaw(doc.Path, doc.Data); err != nil {
			return fmt.Errorf("failed to import document %s: %w", doc.Path, err)
		}
	}

	log.Printf("Imported %d users (%d skipped), %d documents", imported, skipped, len(backup.Documents))
	return nil
}
