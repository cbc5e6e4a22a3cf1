package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Actor     string
	Action    string
	RecordID  string
	Outcome   string
	Reason    string
}

// Actions recorded by the services. These describe operational activity of
// this process; the domain ledger is a separate thing entirely.
const (
	ActionPartyRegistered    = "party_registered"
	ActionRecordMinted       = "record_minted"
	ActionPrimaryVerified    = "primary_verified"
	ActionSecondaryRequested = "secondary_requested"
	ActionSecondaryVerified  = "secondary_verified"
	ActionUserRegistered     = "user_registered"
	ActionUserLoggedIn       = "user_logged_in"
)

// Outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)
