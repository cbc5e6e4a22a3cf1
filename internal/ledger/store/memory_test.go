package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichain/internal/ledger/models"
	id "medichain/pkg/domain"
)

func TestAppend_AssignsIncreasingPositions(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		pos, err := store.Append(ctx, &models.Event{
			RecordID: id.RecordID(1),
			Actor:    "0xowner",
			Kind:     models.KindRecordCreated,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), pos)
	}

	head, err := store.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), head)
}

func TestFetch_ReturnsRangeInOrder(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	kinds := []models.Kind{
		models.KindRecordCreated,
		models.KindPrimaryVerified,
		models.KindSecondaryRequested,
		models.KindSecondaryVerified,
	}
	for _, kind := range kinds {
		_, err := store.Append(ctx, &models.Event{RecordID: 1, Actor: "0xactor", Kind: kind})
		require.NoError(t, err)
	}

	events, err := store.Fetch(ctx, 2, 3)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[0].Position)
	assert.Equal(t, models.KindPrimaryVerified, events[0].Kind)
	assert.Equal(t, uint64(3), events[1].Position)
	assert.Equal(t, models.KindSecondaryRequested, events[1].Kind)
}

func TestFetch_ZeroToMeansHead(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, &models.Event{RecordID: 1, Actor: "0xactor", Kind: models.KindRecordCreated})
		require.NoError(t, err)
	}

	events, err := store.Fetch(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestFetch_RangeBeyondHeadIsEmpty(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.Append(ctx, &models.Event{RecordID: 1, Actor: "0xactor", Kind: models.KindRecordCreated})
	require.NoError(t, err)

	events, err := store.Fetch(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFetch_ReturnsCopies(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.Append(ctx, &models.Event{RecordID: 1, Actor: "0xactor", Kind: models.KindRecordCreated, Target: "cityhospital"})
	require.NoError(t, err)

	first, err := store.Fetch(ctx, 1, 1)
	require.NoError(t, err)
	first[0].Target = "tampered"

	second, err := store.Fetch(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "cityhospital", second[0].Target)
}

func TestAppend_ConcurrentPositionsAreUnique(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	const n = 100
	positions := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pos, err := store.Append(ctx, &models.Event{RecordID: 1, Actor: "0xactor", Kind: models.KindPrimaryVerified})
			assert.NoError(t, err)
			positions <- pos
		}()
	}
	wg.Wait()
	close(positions)

	seen := make(map[uint64]bool, n)
	for pos := range positions {
		assert.False(t, seen[pos], "position %d assigned twice", pos)
		seen[pos] = true
	}
	assert.Len(t, seen, n)
}
