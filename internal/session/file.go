package session

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"attenddash/internal/backend"
)

// FileStore persists a single credential as a JSON file, for the terminal
// client where there is one session per user account on the machine. The id
// argument is accepted for Store compatibility and ignored.
type FileStore struct {
	Path string
}

// NewFileStore places the credential file under the user config directory.
func NewFileStore(appName string) (*FileStore, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &FileStore{Path: filepath.Join(base, appName, "session.json")}, nil
}

// Save writes the credential with owner-only permissions.
func (f *FileStore) Save(_ context.Context, _ string, cred backend.Credential) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

// Read returns the stored credential and whether one is present.
func (f *FileStore) Read(_ context.Context, _ string) (backend.Credential, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return backend.Credential{}, false, nil
	}
	if err != nil {
		return backend.Credential{}, false, err
	}
	var cred backend.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return backend.Credential{}, false, err
	}
	if cred.Token == "" {
		return backend.Credential{}, false, nil
	}
	return cred, true, nil
}

// Clear removes the credential file.
func (f *FileStore) Clear(_ context.Context, _ string) error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
