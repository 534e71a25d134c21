package artifact

import (
	"context"
	"fmt"
	"sync"

	"github.com/book-expert/voice-service/internal/core"
)

// MemoryStore is a mutex-guarded in-memory core.ArtifactStore with the same
// outcome semantics as NATSStore. It backs tests and embedded use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

// Upload stores a copy of data under key, replacing any prior value.
func (s *MemoryStore) Upload(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = append([]byte(nil), data...)

	return nil
}

// Download returns a copy of the stored bytes, or core.ErrNotFound.
func (s *MemoryStore) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", core.ErrNotFound, key)
	}

	return append([]byte(nil), data...), nil
}

// Delete removes key; a key that is already gone is treated as success.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)

	return nil
}

// List returns the keys of all stored artifacts.
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}

	return keys, nil
}
