package models

import (
	"time"

	id "medichain/pkg/domain"
)

// Record is an immutable creation fact: who minted it, what content it binds,
// and which primary verifier it was declared for. Everything that changes
// over a record's life lives in the ledger, not here.
type Record struct {
	ID                  id.RecordID
	Owner               id.AccountID
	ArtifactHash        string
	PrimaryVerifierName string
	CreatedAt           time.Time
}
