package store

import (
	"context"
	"sync"
)

// MemoryStore is a process-local CredentialStore.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	ok    bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// GetCredential returns the stored credential.
func (s *MemoryStore) GetCredential(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.ok, nil
}

// SetCredential replaces the stored credential.
func (s *MemoryStore) SetCredential(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.ok = token, true
	return nil
}

// ClearCredential removes the stored credential.
func (s *MemoryStore) ClearCredential(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.ok = "", false
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
