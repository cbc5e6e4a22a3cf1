package snapshot

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgermodels "medichain/internal/ledger/models"
	ledgerservice "medichain/internal/ledger/service"
	ledgerstore "medichain/internal/ledger/store"
	"medichain/internal/verification/models"
	id "medichain/pkg/domain"
)

func appendEvent(t *testing.T, ledger *ledgerservice.Service, recordID uint64, kind ledgermodels.Kind, actor, target string) {
	t.Helper()
	_, err := ledger.Append(context.Background(), &ledgermodels.Event{
		RecordID:     id.RecordID(recordID),
		Actor:        id.AccountID(actor),
		Kind:         kind,
		Target:       target,
		ArtifactHash: "0xhash",
	})
	require.NoError(t, err)
}

func TestUpdater_BootstrapReplaysExistingLedger(t *testing.T) {
	ledger := ledgerservice.New(ledgerstore.NewInMemory(), slog.Default())
	appendEvent(t, ledger, 1, ledgermodels.KindRecordCreated, "0xalice", "City Hospital")
	appendEvent(t, ledger, 1, ledgermodels.KindPrimaryVerified, "0xdoc1", "")

	snap := New()
	updater := NewUpdater(snap, ledger, ledger.Subscribe(), slog.Default())
	require.NoError(t, updater.Bootstrap(context.Background()))

	status := snap.Get(1)
	require.NotNil(t, status)
	assert.Equal(t, models.PrimaryVerified, status.Primary)
	assert.Equal(t, uint64(2), snap.Position())
}

func TestUpdater_AppliesTail(t *testing.T) {
	ledger := ledgerservice.New(ledgerstore.NewInMemory(), slog.Default())
	snap := New()
	inbox := ledger.Subscribe()
	updater := NewUpdater(snap, ledger, inbox, slog.Default())
	require.NoError(t, updater.Bootstrap(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = updater.Run(ctx)
	}()

	appendEvent(t, ledger, 1, ledgermodels.KindRecordCreated, "0xalice", "City Hospital")
	appendEvent(t, ledger, 1, ledgermodels.KindSecondaryRequested, "0xalice", "AcmeInsurance")

	require.Eventually(t, func() bool {
		return snap.Position() == 2
	}, time.Second, 5*time.Millisecond)

	status := snap.Get(1)
	require.NotNil(t, status)
	assert.Equal(t, models.SecondaryRequested, status.Secondary)

	cancel()
	<-done
}

func TestUpdater_CatchesUpAfterGap(t *testing.T) {
	ledger := ledgerservice.New(ledgerstore.NewInMemory(), slog.Default())
	snap := New()
	updater := NewUpdater(snap, ledger, ledger.Subscribe(), slog.Default())

	// Events appended without the updater running simulate a gap from a
	// saturated subscription buffer.
	appendEvent(t, ledger, 1, ledgermodels.KindRecordCreated, "0xalice", "City Hospital")
	appendEvent(t, ledger, 1, ledgermodels.KindPrimaryVerified, "0xdoc1", "")
	appendEvent(t, ledger, 2, ledgermodels.KindRecordCreated, "0xbob", "City Hospital")

	// Delivering only the latest event must pull in the two missed ones.
	latest := ledgermodels.Event{
		Position: 3,
		RecordID: 2,
		Actor:    "0xbob",
		Kind:     ledgermodels.KindRecordCreated,
		Target:   "City Hospital",
	}
	require.NoError(t, updater.apply(context.Background(), &latest))

	assert.Equal(t, uint64(3), snap.Position())
	assert.Equal(t, models.PrimaryVerified, snap.Get(1).Primary)
	require.NotNil(t, snap.Get(2))
	assert.Empty(t, snap.Anomalies())
}

func TestUpdater_IgnoresAlreadyApplied(t *testing.T) {
	ledger := ledgerservice.New(ledgerstore.NewInMemory(), slog.Default())
	snap := New()
	updater := NewUpdater(snap, ledger, ledger.Subscribe(), slog.Default())

	appendEvent(t, ledger, 1, ledgermodels.KindRecordCreated, "0xalice", "City Hospital")
	require.NoError(t, updater.Bootstrap(context.Background()))

	replay := ledgermodels.Event{Position: 1, RecordID: 1, Kind: ledgermodels.KindRecordCreated, Actor: "0xalice"}
	require.NoError(t, updater.apply(context.Background(), &replay))

	assert.Equal(t, uint64(1), snap.Position())
	assert.Empty(t, snap.Anomalies())
}
