package user

import (
	"context"
	"strings"
	"sync"

	"medichain/internal/auth/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
)

// InMemory keeps users keyed by ID with email and account indexes. Emails
// and accounts are unique across the store.
type InMemory struct {
	mu        sync.RWMutex
	users     map[id.UserID]*models.User
	byEmail   map[string]id.UserID
	byAccount map[id.AccountID]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:     make(map[id.UserID]*models.User),
		byEmail:   make(map[string]id.UserID),
		byAccount: make(map[id.AccountID]id.UserID),
	}
}

func (s *InMemory) Create(_ context.Context, u *models.User) error {
	email := strings.ToLower(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, taken := s.byAccount[u.AccountID]; taken {
		return sentinel.ErrAlreadyUsed
	}

	stored := *u
	s.users[u.ID] = &stored
	s.byEmail[email] = u.ID
	s.byAccount[u.AccountID] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *s.users[userID]
	return &out, nil
}
