package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichain/internal/auth/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
)

func newSession(ttl time.Duration) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		Device:    "Chrome on macOS",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestInMemory_CreateFindDelete(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	session := newSession(time.Hour)

	require.NoError(t, s.Create(ctx, session))

	found, err := s.Find(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, found.UserID)

	require.NoError(t, s.Delete(ctx, session.ID))
	_, err = s.Find(ctx, session.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_ExpiredSessionIsGone(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	session := newSession(-time.Minute)

	require.NoError(t, s.Create(ctx, session))
	_, err := s.Find(ctx, session.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
