package session

import (
	"context"
	"sync"

	"attenddash/internal/backend"
)

// Store holds one credential per session id. The dashboard never inspects or
// refreshes what it stores; staleness is only ever discovered through a
// rejected request.
type Store interface {
	Save(ctx context.Context, id string, cred backend.Credential) error
	Read(ctx context.Context, id string) (backend.Credential, bool, error)
	Clear(ctx context.Context, id string) error
}

// Memory is a mutex-guarded in-process store for dev and tests.
type Memory struct {
	mu    sync.RWMutex
	creds map[string]backend.Credential
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{creds: make(map[string]backend.Credential)}
}

// Save stores the credential under id, replacing any previous one.
func (m *Memory) Save(_ context.Context, id string, cred backend.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[id] = cred
	return nil
}

// Read returns the credential for id and whether one is present.
func (m *Memory) Read(_ context.Context, id string) (backend.Credential, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.creds[id]
	return cred, ok, nil
}

// Clear removes the credential for id. Clearing an absent id is not an error.
func (m *Memory) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.creds, id)
	return nil
}
