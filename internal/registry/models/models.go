package models

import (
	"strings"
	"time"

	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
)

// Role is the explicit membership tag of a party. Modeling it as an enum on
// the party, rather than inferring it from which table an account happens to
// appear in, keeps authorization checks direct.
type Role string

const (
	RoleOwner             Role = "owner"
	RolePrimaryVerifier   Role = "primary_verifier"
	RoleSecondaryVerifier Role = "secondary_verifier"
	RoleAdmin             Role = "admin"
)

// ParseRole validates a role string from a trust boundary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RolePrimaryVerifier, RoleSecondaryVerifier, RoleAdmin:
		return Role(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+s)
}

const maxDisplayNameLength = 128

// Party is a registered member of the workflow. DisplayName keeps the casing
// it was registered with; NormalizedName is the lower-cased key every
// cross-reference joins on. Parties are never deleted or renamed.
type Party struct {
	AccountID      id.AccountID
	Role           Role
	DisplayName    string
	NormalizedName string
	RegisteredAt   time.Time
}

// NewParty validates inputs and derives the normalized name. Normalization
// happens exactly once, here, so consumers never re-derive it.
func NewParty(accountID id.AccountID, role Role, displayName string) (*Party, error) {
	displayName = strings.TrimSpace(displayName)
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "account ID required")
	}
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "display name required")
	}
	if len(displayName) > maxDisplayNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "display name too long")
	}
	return &Party{
		AccountID:      accountID,
		Role:           role,
		DisplayName:    displayName,
		NormalizedName: NormalizeName(displayName),
		RegisteredAt:   time.Now().UTC(),
	}, nil
}

// NormalizeName lower-cases a display name for joining. All consumers go
// through this one function so the casing rule cannot drift.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
