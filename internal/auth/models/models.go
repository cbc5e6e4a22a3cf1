package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	registrymodels "medichain/internal/registry/models"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
)

// User is a credential-store account. It is distinct from the party the
// account may be registered as: credentials authenticate HTTP callers, the
// registry decides what their account may do in the attestation workflow.
type User struct {
	ID           id.UserID
	Email        string
	PasswordHash string
	Role         registrymodels.Role
	AccountID    id.AccountID
	DisplayName  string
	CreatedAt    time.Time
}

// Session is one login. Device carries the human-readable client name parsed
// from the User-Agent at login time.
type Session struct {
	ID        id.SessionID
	UserID    id.UserID
	Device    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewUser validates and normalizes registration input.
func NewUser(email, passwordHash string, role registrymodels.Role, accountID id.AccountID, displayName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "valid email required")
	}
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "account id required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "display name required")
	}
	return &User{
		ID:           id.UserID(uuid.New()),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		AccountID:    accountID,
		DisplayName:  displayName,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
