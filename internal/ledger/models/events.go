package models

import (
	"time"

	id "medichain/pkg/domain"
)

// Kind discriminates the domain events the ledger accepts. The set is closed:
// replay treats any other value as a reportable anomaly, never as something
// to drop.
type Kind string

const (
	KindRecordCreated      Kind = "record_created"
	KindPrimaryVerified    Kind = "primary_verified"
	KindSecondaryRequested Kind = "secondary_verification_requested"
	KindSecondaryVerified  Kind = "secondary_verified"
)

// Event is a single ledger entry. Events are immutable once appended; their
// total order is given by Position, assigned by the store at append time.
//
// Payload use per kind:
//   - record_created: Actor is the record owner, Target names the primary
//     verifier, ArtifactHash carries the content address.
//   - primary_verified / secondary_verified: Actor is the verifier.
//   - secondary_verification_requested: Actor is the requester, Target names
//     the secondary verifier.
type Event struct {
	Position     uint64       `json:"position"`
	RecordID     id.RecordID  `json:"recordId"`
	Actor        id.AccountID `json:"actor"`
	Kind         Kind         `json:"kind"`
	Target       string       `json:"target,omitempty"`
	ArtifactHash string       `json:"artifactHash,omitempty"`
	AppendedAt   time.Time    `json:"appendedAt"`
}

// Known reports whether k is one of the closed set of event kinds.
func (k Kind) Known() bool {
	switch k {
	case KindRecordCreated, KindPrimaryVerified, KindSecondaryRequested, KindSecondaryVerified:
		return true
	}
	return false
}
