package store

import (
	"context"
	"sync"

	"medichain/internal/records/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = sentinel.ErrNotFound

// InMemory keeps minted records in memory. The ID counter only moves forward:
// an allocation burned by a failed mint is never handed out again.
type InMemory struct {
	mu      sync.RWMutex
	nextID  uint64
	records map[id.RecordID]*models.Record
}

// NewInMemory creates an empty in-memory record store.
func NewInMemory() *InMemory {
	return &InMemory{nextID: 1, records: make(map[id.RecordID]*models.Record)}
}

// AllocateID hands out the next record ID. Strictly increasing, never reused.
func (s *InMemory) AllocateID(_ context.Context) (id.RecordID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allocated := id.RecordID(s.nextID)
	s.nextID++
	return allocated, nil
}

// Put stores a minted record. Records are immutable; overwriting is a bug.
func (s *InMemory) Put(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = record
	return nil
}

// FindByID retrieves a record.
func (s *InMemory) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[recordID]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

// ListByOwner returns records minted by the account, ordered by record ID.
func (s *InMemory) ListByOwner(_ context.Context, owner id.AccountID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	// Record IDs are dense enough that a scan in ID order keeps the result
	// deterministic without a separate index.
	for i := uint64(1); i < s.nextID; i++ {
		if r, ok := s.records[id.RecordID(i)]; ok && r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}
