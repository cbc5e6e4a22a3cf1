// Package models defines the per-record verification state the projection
// derives from the ledger.
package models

import (
	id "medichain/pkg/domain"
)

// PrimaryStatus is the first verification tier. It moves one way:
// Unverified to Verified.
type PrimaryStatus string

const (
	PrimaryUnverified PrimaryStatus = "unverified"
	PrimaryVerified   PrimaryStatus = "verified"
)

// SecondaryStatus is the second verification tier. It moves one way through
// NotRequested, Requested, Approved; the target named at request time is
// carried through to approval.
type SecondaryStatus string

const (
	SecondaryNotRequested SecondaryStatus = "not_requested"
	SecondaryRequested    SecondaryStatus = "requested"
	SecondaryApproved     SecondaryStatus = "approved"
)

// Status is the full derived state of one record. Owner, ArtifactHash and
// PrimaryVerifierName come from the creation event; the tiers from the
// verification events that followed.
type Status struct {
	RecordID            id.RecordID
	Owner               id.AccountID
	ArtifactHash        string
	PrimaryVerifierName string

	Primary         PrimaryStatus
	Secondary       SecondaryStatus
	SecondaryTarget string

	// LastPosition is the position of the latest event applied to this
	// record.
	LastPosition uint64
}

// Clone returns an independent copy.
func (s *Status) Clone() *Status {
	clone := *s
	return &clone
}
