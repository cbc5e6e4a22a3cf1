package store

import (
	"context"
	"fmt"
	"sync"

	"medichain/internal/registry/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
)

// ErrNotFound is returned when a party is not registered.
var ErrNotFound = sentinel.ErrNotFound

// InMemory stores parties in memory. Registration order is preserved per
// role; the name index is keyed by normalized name so uniqueness is
// case-insensitive by construction.
type InMemory struct {
	mu       sync.RWMutex
	byRole   map[models.Role][]*models.Party
	nameIdx  map[models.Role]map[string]*models.Party
	accounts map[id.AccountID]*models.Party
}

// NewInMemory creates an empty in-memory registry store.
func NewInMemory() *InMemory {
	return &InMemory{
		byRole:   make(map[models.Role][]*models.Party),
		nameIdx:  make(map[models.Role]map[string]*models.Party),
		accounts: make(map[id.AccountID]*models.Party),
	}
}

// CreateIfNameAvailable atomically registers the party if neither its
// normalized name (within the role) nor its account is already taken.
func (s *InMemory) CreateIfNameAvailable(_ context.Context, p *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.nameIdx[p.Role]
	if !ok {
		idx = make(map[string]*models.Party)
		s.nameIdx[p.Role] = idx
	}
	if _, exists := idx[p.NormalizedName]; exists {
		return fmt.Errorf("display name must be unique within role: %w", sentinel.ErrAlreadyUsed)
	}
	if _, exists := s.accounts[p.AccountID]; exists {
		return fmt.Errorf("account already registered: %w", sentinel.ErrAlreadyUsed)
	}

	idx[p.NormalizedName] = p
	s.byRole[p.Role] = append(s.byRole[p.Role], p)
	s.accounts[p.AccountID] = p
	return nil
}

// FindByAccount retrieves the party a ledger account is registered as.
func (s *InMemory) FindByAccount(_ context.Context, accountID id.AccountID) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.accounts[accountID]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

// FindByName retrieves a party by role and display name (case-insensitive).
func (s *InMemory) FindByName(_ context.Context, role models.Role, name string) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.nameIdx[role][models.NormalizeName(name)]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

// ListByRole returns parties of a role in registration order.
func (s *InMemory) ListByRole(_ context.Context, role models.Role) ([]*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Party{}, s.byRole[role]...), nil
}
