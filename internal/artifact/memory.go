package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"medichain/pkg/platform/sentinel"
)

// InMemory is a SHA-256 content-addressed store backed by a map.
type InMemory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{blobs: make(map[string][]byte)}
}

func (s *InMemory) Store(_ context.Context, data []byte) (string, error) {
	hash := Hash(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[hash]; !exists {
		stored := make([]byte, len(data))
		copy(stored, data)
		s.blobs[hash] = stored
	}
	return hash, nil
}

func (s *InMemory) Retrieve(_ context.Context, hash string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[hash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *InMemory) Exists(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[hash]
	return ok, nil
}

// Hash returns the hex SHA-256 content address of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
