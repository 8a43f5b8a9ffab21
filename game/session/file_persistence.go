package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilePersistence implements SessionPersistence with one JSON file per
// session
type FilePersistence struct {
	sessionsDir string
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string) (*FilePersistence, error) {
	// Create sessions directory if it doesn't exist
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{sessionsDir: sessionsDir}, nil
}

// Save persists a session to a JSON file
func (fp *FilePersistence) Save(data *PersistedSessionData) error {
	if data == nil {
		return fmt.Errorf("session cannot be nil")
	}

	// Marshal to JSON with indentation for readability
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	// Write to a temporary file and rename it into place
	filePath := fp.getFilePath(data.ID)
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load retrieves a session from a JSON file
func (fp *FilePersistence) Load(id string) (*PersistedSessionData, error) {
	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}
	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}
	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a session ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", strings.ToLower(filepath.Base(id))))
}
