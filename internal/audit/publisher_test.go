package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_EmitAndList(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), Event{
		Actor:   "0xalice",
		Action:  ActionRecordMinted,
		Outcome: OutcomeAccepted,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "0xalice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionRecordMinted, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_PreservesExplicitTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), Event{
		Timestamp: stamp,
		Actor:     "0xalice",
		Action:    ActionUserLoggedIn,
	})
	require.NoError(t, err)

	events, err := store.ListByActor(context.Background(), "0xalice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stamp, events[0].Timestamp)
}

func TestPublisher_ListFiltersByActor(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	require.NoError(t, pub.Emit(context.Background(), Event{Actor: "0xalice", Action: ActionRecordMinted}))
	require.NoError(t, pub.Emit(context.Background(), Event{Actor: "0xbob", Action: ActionPrimaryVerified}))

	events, err := pub.List(context.Background(), "0xbob")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionPrimaryVerified, events[0].Action)
}

func TestAsyncPublisher_WorkerPersists(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 16)
	pub := NewAsyncPublisher(inbox)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	err := pub.Emit(context.Background(), Event{Actor: "0xalice", Action: ActionUserRegistered})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		events, listErr := store.ListByActor(context.Background(), "0xalice")
		return listErr == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestAsyncPublisher_FailsWhenQueueFull(t *testing.T) {
	inbox := make(chan Event, 1)
	pub := NewAsyncPublisher(inbox)

	// No worker draining; second emit must fail instead of blocking.
	require.NoError(t, pub.Emit(context.Background(), Event{Actor: "0xalice", Action: ActionRecordMinted}))
	err := pub.Emit(context.Background(), Event{Actor: "0xalice", Action: ActionRecordMinted})
	require.Error(t, err)
}
