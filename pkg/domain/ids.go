// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "medichain/pkg/domain-errors"
)

// AccountID is the ledger-facing account identifier of a party. The ledger
// treats it as an opaque, case-insensitive token; it is normalized to lower
// case at the trust boundary so equality checks are a plain comparison.
type AccountID string

// RecordID identifies a minted record. IDs are assigned strictly increasing
// by the record store and are never reused, even when a mint is rejected
// after allocation.
type RecordID uint64

// SessionID identifies a login session.
type SessionID uuid.UUID

// UserID identifies a credential-store user. Distinct from AccountID: the
// credential store and the on-ledger party registry are separate records.
type UserID uuid.UUID

// ParseAccountID validates and normalizes an account identifier.
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account ID cannot be empty")
	}
	return AccountID(strings.ToLower(s)), nil
}

// ParseRecordID parses a decimal record identifier.
func ParseRecordID(s string) (RecordID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "record ID must be a non-negative integer")
	}
	return RecordID(n), nil
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

// String methods - for logging and debugging.

func (id AccountID) String() string { return string(id) }
func (id RecordID) String() string  { return strconv.FormatUint(uint64(id), 10) }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string    { return uuid.UUID(id).String() }

// Text marshalling - UUID-backed IDs serialize as their string form.

func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *SessionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsNil checks - used for service-layer validation.

func (id AccountID) IsNil() bool { return id == "" }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
