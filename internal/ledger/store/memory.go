package store

import (
	"context"
	"sync"

	"medichain/internal/ledger/models"
)

// InMemory keeps the ledger as an in-process append-only slice. Appends are
// serialized by the write lock; fetches copy the requested range so callers
// always read an immutable snapshot.
type InMemory struct {
	mu     sync.RWMutex
	events []models.Event
}

// NewInMemory creates an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append assigns the next position and stores the event. Positions start at 1
// and never repeat.
func (s *InMemory) Append(_ context.Context, event *models.Event) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Position = uint64(len(s.events)) + 1
	s.events = append(s.events, *event)
	return event.Position, nil
}

// Fetch returns events with positions in [from, to], in ledger order. A zero
// `to` means "up to the head". Positions outside the ledger are simply absent
// from the result; fetch is naturally idempotent.
func (s *InMemory) Fetch(_ context.Context, from, to uint64) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	head := uint64(len(s.events))
	if to == 0 || to > head {
		to = head
	}
	if from < 1 {
		from = 1
	}
	if from > to {
		return nil, nil
	}

	out := make([]models.Event, to-from+1)
	copy(out, s.events[from-1:to])
	return out, nil
}

// Head returns the position of the most recent event, 0 when empty.
func (s *InMemory) Head(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.events)), nil
}
