// Package memory provides an in-memory blob store for tests and embedding.
package memory

import (
	"context"
	"sync"

	"github.com/aidekit/aide/internal/storage"
)

// Store is a map-backed blob store.
type Store struct {
	mu        sync.RWMutex
	documents map[string][]byte
	published map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		documents: map[string][]byte{},
		published: map[string][]byte{},
	}
}

// Get implements storage.Store.
func (s *Store) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.documents[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put implements storage.Store.
func (s *Store) Put(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[id] = append([]byte(nil), data...)
	return nil
}

// PutPublished implements storage.Store.
func (s *Store) PutPublished(_ context.Context, slug string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[slug] = append([]byte(nil), data...)
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}

// GetPublished returns a published copy by slug, for tests and serving.
func (s *Store) GetPublished(_ context.Context, slug string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.published[slug]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}
