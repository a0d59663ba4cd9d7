// Package storage provides object storage for contract documents and
// generated artifacts.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryObjectStorage keeps objects in a map. It backs development mode
// (no bucket configured) and tests.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// BaseURL prefixes the fake presigned URLs
	BaseURL string
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		objects: make(map[string][]byte),
		BaseURL: "https://storage.example.com",
	}
}

// Ensure MemoryObjectStorage implements ObjectStorage
var _ ObjectStorage = (*MemoryObjectStorage)(nil)

// Upload stores a copy of the data under the key
func (s *MemoryObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return nil
}

// Download returns the stored data for the key
func (s *MemoryObjectStorage) Download(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes the object if present
func (s *MemoryObjectStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Exists reports whether the key holds an object
func (s *MemoryObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// PresignDownload returns a fake URL carrying the expiry
func (s *MemoryObjectStorage) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + key + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// Size returns the number of stored objects (for tests)
func (s *MemoryObjectStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
