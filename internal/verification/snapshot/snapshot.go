// Package snapshot keeps a materialized verification view fed from the
// ledger tail. A full replay of the ledger always produces the same answers;
// the snapshot just avoids replaying on every read.
package snapshot

import (
	"sync"

	ledgermodels "medichain/internal/ledger/models"
	"medichain/internal/verification/models"
	"medichain/internal/verification/projection"
	id "medichain/pkg/domain"
)

// Snapshot is a shared, incrementally updated projection. Readers get
// independent copies and never block the writer for longer than the copy.
type Snapshot struct {
	mu    sync.RWMutex
	state *projection.State
}

func New() *Snapshot {
	return &Snapshot{state: projection.NewState()}
}

// Replace swaps in a freshly projected state, used at startup after a full
// replay.
func (s *Snapshot) Replace(state *projection.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Apply folds one event into the snapshot.
func (s *Snapshot) Apply(event *ledgermodels.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Apply(event)
}

// Position returns the position of the last applied event.
func (s *Snapshot) Position() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Position()
}

// Get returns a copy of one record's status, or nil when unknown.
func (s *Snapshot) Get(recordID id.RecordID) *models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Get(recordID)
}

// OwnedBy returns the statuses of records owned by the account.
func (s *Snapshot) OwnedBy(owner id.AccountID) []*models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.OwnedBy(owner)
}

// TargetingName returns the statuses whose secondary tier targets the named
// party.
func (s *Snapshot) TargetingName(name string) []*models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TargetingName(name)
}

// AwaitingPrimary returns the unverified statuses declared for the named
// primary verifier.
func (s *Snapshot) AwaitingPrimary(name string) []*models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AwaitingPrimary(name)
}

// Anomalies returns the anomalies the fold has observed.
func (s *Snapshot) Anomalies() []projection.Anomaly {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Anomalies()
}
