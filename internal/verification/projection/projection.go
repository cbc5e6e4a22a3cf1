// Package projection folds ledger events into per-record verification
// status. The fold is pure and deterministic: events are applied in position
// order regardless of arrival order, tiers only move forward, and the first
// secondary request for a record wins. Anything the fold cannot apply is
// surfaced as an anomaly, never silently dropped.
package projection

import (
	"fmt"
	"sort"

	ledgermodels "medichain/internal/ledger/models"
	registrymodels "medichain/internal/registry/models"
	"medichain/internal/verification/models"
	id "medichain/pkg/domain"
)

// Anomaly is an event the fold observed but could not apply. Anomalies are
// kept so operators can inspect a ledger that contains entries this process
// does not understand or that violate the state machine's order.
type Anomaly struct {
	Position uint64
	RecordID id.RecordID
	Kind     ledgermodels.Kind
	Reason   string
}

// State is the accumulating fold target. Zero value is not usable; construct
// with NewState. State is not safe for concurrent use; the snapshot wraps it
// with a lock for shared reading.
type State struct {
	records   map[id.RecordID]*models.Status
	anomalies []Anomaly
	// position of the last event applied, used to reject regressions when
	// applying incrementally.
	position uint64
}

func NewState() *State {
	return &State{records: make(map[id.RecordID]*models.Status)}
}

// Project folds events into a fresh state. Input order does not matter; the
// fold sorts by position first.
func Project(events []ledgermodels.Event) *State {
	ordered := make([]ledgermodels.Event, len(events))
	copy(ordered, events)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	state := NewState()
	for i := range ordered {
		state.Apply(&ordered[i])
	}
	return state
}

// Apply folds one event into the state. Events must arrive in position order
// when applying incrementally; an out-of-order event is recorded as an
// anomaly and skipped.
func (s *State) Apply(event *ledgermodels.Event) {
	if event.Position <= s.position {
		s.anomaly(event, fmt.Sprintf("position %d not after %d", event.Position, s.position))
		return
	}
	s.position = event.Position

	switch event.Kind {
	case ledgermodels.KindRecordCreated:
		s.applyCreated(event)
	case ledgermodels.KindPrimaryVerified:
		s.applyPrimaryVerified(event)
	case ledgermodels.KindSecondaryRequested:
		s.applySecondaryRequested(event)
	case ledgermodels.KindSecondaryVerified:
		s.applySecondaryVerified(event)
	default:
		s.anomaly(event, "unknown event kind")
	}
}

func (s *State) applyCreated(event *ledgermodels.Event) {
	if _, exists := s.records[event.RecordID]; exists {
		s.anomaly(event, "record already created")
		return
	}
	s.records[event.RecordID] = &models.Status{
		RecordID:            event.RecordID,
		Owner:               event.Actor,
		ArtifactHash:        event.ArtifactHash,
		PrimaryVerifierName: event.Target,
		Primary:             models.PrimaryUnverified,
		Secondary:           models.SecondaryNotRequested,
		LastPosition:        event.Position,
	}
}

func (s *State) applyPrimaryVerified(event *ledgermodels.Event) {
	status, ok := s.records[event.RecordID]
	if !ok {
		s.anomaly(event, "record not created")
		return
	}
	// Already verified: monotonic no-op.
	status.Primary = models.PrimaryVerified
	status.LastPosition = event.Position
}

func (s *State) applySecondaryRequested(event *ledgermodels.Event) {
	status, ok := s.records[event.RecordID]
	if !ok {
		s.anomaly(event, "record not created")
		return
	}
	if status.Secondary != models.SecondaryNotRequested {
		// First request wins, including after approval.
		return
	}
	status.Secondary = models.SecondaryRequested
	status.SecondaryTarget = event.Target
	status.LastPosition = event.Position
}

func (s *State) applySecondaryVerified(event *ledgermodels.Event) {
	status, ok := s.records[event.RecordID]
	if !ok {
		s.anomaly(event, "record not created")
		return
	}
	switch status.Secondary {
	case models.SecondaryNotRequested:
		s.anomaly(event, "approval without request")
	case models.SecondaryRequested:
		status.Secondary = models.SecondaryApproved
		status.LastPosition = event.Position
	case models.SecondaryApproved:
		// Monotonic no-op.
	}
}

func (s *State) anomaly(event *ledgermodels.Event, reason string) {
	s.anomalies = append(s.anomalies, Anomaly{
		Position: event.Position,
		RecordID: event.RecordID,
		Kind:     event.Kind,
		Reason:   reason,
	})
}

// Position returns the position of the last event applied.
func (s *State) Position() uint64 {
	return s.position
}

// Get returns a copy of one record's status, or nil when unknown.
func (s *State) Get(recordID id.RecordID) *models.Status {
	status, ok := s.records[recordID]
	if !ok {
		return nil
	}
	return status.Clone()
}

// OwnedBy returns copies of the statuses of records owned by the account,
// ordered by record ID.
func (s *State) OwnedBy(owner id.AccountID) []*models.Status {
	return s.collect(func(status *models.Status) bool {
		return status.Owner == owner
	})
}

// TargetingName returns copies of the statuses whose secondary tier targets
// the named party, matched case-insensitively, ordered by record ID.
func (s *State) TargetingName(name string) []*models.Status {
	normalized := registrymodels.NormalizeName(name)
	return s.collect(func(status *models.Status) bool {
		return status.Secondary != models.SecondaryNotRequested &&
			registrymodels.NormalizeName(status.SecondaryTarget) == normalized
	})
}

// AwaitingPrimary returns copies of the unverified statuses declared for the
// named primary verifier, matched case-insensitively, ordered by record ID.
func (s *State) AwaitingPrimary(name string) []*models.Status {
	normalized := registrymodels.NormalizeName(name)
	return s.collect(func(status *models.Status) bool {
		return status.Primary == models.PrimaryUnverified &&
			registrymodels.NormalizeName(status.PrimaryVerifierName) == normalized
	})
}

// Anomalies returns a copy of the anomalies observed so far.
func (s *State) Anomalies() []Anomaly {
	out := make([]Anomaly, len(s.anomalies))
	copy(out, s.anomalies)
	return out
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	clone := &State{
		records:   make(map[id.RecordID]*models.Status, len(s.records)),
		anomalies: make([]Anomaly, len(s.anomalies)),
		position:  s.position,
	}
	for recordID, status := range s.records {
		clone.records[recordID] = status.Clone()
	}
	copy(clone.anomalies, s.anomalies)
	return clone
}

func (s *State) collect(keep func(*models.Status) bool) []*models.Status {
	var out []*models.Status
	for _, status := range s.records {
		if keep(status) {
			out = append(out, status.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}
