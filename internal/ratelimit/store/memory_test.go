package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_WithinLimit(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := s.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 2-i, result.Remaining)
	}
}

func TestAllow_OverLimit(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Allow(ctx, "1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
	}

	result, err := s.Allow(ctx, "1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
	assert.True(t, result.ResetAt.After(time.Now()))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, err := s.Allow(ctx, "1.2.3.4", 1, time.Minute)
	require.NoError(t, err)

	result, err := s.Allow(ctx, "5.6.7.8", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestAllow_WindowSlides(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, err := s.Allow(ctx, "1.2.3.4", 1, 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	result, err := s.Allow(ctx, "1.2.3.4", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestReset(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, err := s.Allow(ctx, "1.2.3.4", 1, time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx, "1.2.3.4"))

	result, err := s.Allow(ctx, "1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
