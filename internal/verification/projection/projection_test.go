package projection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgermodels "medichain/internal/ledger/models"
	"medichain/internal/verification/models"
	id "medichain/pkg/domain"
)

func event(position uint64, recordID uint64, kind ledgermodels.Kind, actor, target string) ledgermodels.Event {
	return ledgermodels.Event{
		Position: position,
		RecordID: id.RecordID(recordID),
		Actor:    id.AccountID(actor),
		Kind:     kind,
		Target:   target,
	}
}

func created(position uint64, recordID uint64, owner, primaryVerifier string) ledgermodels.Event {
	e := event(position, recordID, ledgermodels.KindRecordCreated, owner, primaryVerifier)
	e.ArtifactHash = "0xhash"
	return e
}

func TestProject_CreationState(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
	})

	status := state.Get(1)
	require.NotNil(t, status)
	assert.Equal(t, id.AccountID("0xalice"), status.Owner)
	assert.Equal(t, "City Hospital", status.PrimaryVerifierName)
	assert.Equal(t, "0xhash", status.ArtifactHash)
	assert.Equal(t, models.PrimaryUnverified, status.Primary)
	assert.Equal(t, models.SecondaryNotRequested, status.Secondary)
	assert.Empty(t, state.Anomalies())
}

func TestProject_FullLifecycle(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		event(2, 1, ledgermodels.KindPrimaryVerified, "0xdoc1", ""),
		event(3, 1, ledgermodels.KindSecondaryRequested, "0xalice", "AcmeInsurance"),
		event(4, 1, ledgermodels.KindSecondaryVerified, "0xins1", ""),
	})

	status := state.Get(1)
	require.NotNil(t, status)
	assert.Equal(t, models.PrimaryVerified, status.Primary)
	assert.Equal(t, models.SecondaryApproved, status.Secondary)
	assert.Equal(t, "AcmeInsurance", status.SecondaryTarget)
	assert.Empty(t, state.Anomalies())
}

func TestProject_OrderIndependent(t *testing.T) {
	events := []ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		event(2, 1, ledgermodels.KindPrimaryVerified, "0xdoc1", ""),
		created(3, 2, "0xbob", "City Hospital"),
		event(4, 1, ledgermodels.KindSecondaryRequested, "0xalice", "AcmeInsurance"),
		event(5, 2, ledgermodels.KindSecondaryRequested, "0xbob", "OtherInsurance"),
		event(6, 1, ledgermodels.KindSecondaryVerified, "0xins1", ""),
	}
	want := Project(events)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]ledgermodels.Event, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := Project(shuffled)
		assert.Equal(t, want.Get(1), got.Get(1))
		assert.Equal(t, want.Get(2), got.Get(2))
		assert.Equal(t, want.Anomalies(), got.Anomalies())
	}
}

func TestProject_FirstRequestWins(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		event(5, 1, ledgermodels.KindSecondaryRequested, "0xalice", "AcmeInsurance"),
		event(7, 1, ledgermodels.KindSecondaryRequested, "0xdoc1", "OtherInsurance"),
	})

	status := state.Get(1)
	require.NotNil(t, status)
	assert.Equal(t, models.SecondaryRequested, status.Secondary)
	assert.Equal(t, "AcmeInsurance", status.SecondaryTarget)
	// The losing request is a no-op, not an anomaly.
	assert.Empty(t, state.Anomalies())
}

func TestProject_RequestAfterApprovalIgnored(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		event(2, 1, ledgermodels.KindSecondaryRequested, "0xalice", "AcmeInsurance"),
		event(3, 1, ledgermodels.KindSecondaryVerified, "0xins1", ""),
		event(4, 1, ledgermodels.KindSecondaryRequested, "0xalice", "OtherInsurance"),
	})

	status := state.Get(1)
	require.NotNil(t, status)
	assert.Equal(t, models.SecondaryApproved, status.Secondary)
	assert.Equal(t, "AcmeInsurance", status.SecondaryTarget)
}

func TestProject_TiersAreMonotonic(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		event(2, 1, ledgermodels.KindPrimaryVerified, "0xdoc1", ""),
		event(3, 1, ledgermodels.KindPrimaryVerified, "0xdoc1", ""),
		event(4, 1, ledgermodels.KindSecondaryRequested, "0xalice", "AcmeInsurance"),
		event(5, 1, ledgermodels.KindSecondaryVerified, "0xins1", ""),
		event(6, 1, ledgermodels.KindSecondaryVerified, "0xins1", ""),
	})

	status := state.Get(1)
	require.NotNil(t, status)
	assert.Equal(t, models.PrimaryVerified, status.Primary)
	assert.Equal(t, models.SecondaryApproved, status.Secondary)
	assert.Empty(t, state.Anomalies())
}

func TestProject_AnomaliesSurfaced(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		{Position: 2, RecordID: 1, Kind: "record_burned", Actor: "0xalice"},
		event(3, 9, ledgermodels.KindPrimaryVerified, "0xdoc1", ""),
		event(4, 1, ledgermodels.KindSecondaryVerified, "0xins1", ""),
	})

	anomalies := state.Anomalies()
	require.Len(t, anomalies, 3)
	assert.Equal(t, uint64(2), anomalies[0].Position)
	assert.Equal(t, "unknown event kind", anomalies[0].Reason)
	assert.Equal(t, "record not created", anomalies[1].Reason)
	assert.Equal(t, "approval without request", anomalies[2].Reason)

	// The known record is unaffected by the anomalous entries.
	status := state.Get(1)
	require.NotNil(t, status)
	assert.Equal(t, models.PrimaryUnverified, status.Primary)
	assert.Equal(t, models.SecondaryNotRequested, status.Secondary)
}

func TestApply_RejectsPositionRegression(t *testing.T) {
	state := NewState()
	first := created(1, 1, "0xalice", "City Hospital")
	state.Apply(&first)

	repeat := created(1, 2, "0xbob", "City Hospital")
	state.Apply(&repeat)

	assert.Nil(t, state.Get(2))
	require.Len(t, state.Anomalies(), 1)
	assert.Equal(t, uint64(1), state.Position())
}

func TestState_OwnedBy(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		created(2, 2, "0xbob", "City Hospital"),
		created(3, 3, "0xalice", "City Hospital"),
	})

	owned := state.OwnedBy("0xalice")
	require.Len(t, owned, 2)
	assert.Equal(t, id.RecordID(1), owned[0].RecordID)
	assert.Equal(t, id.RecordID(3), owned[1].RecordID)
}

func TestState_TargetingName_CaseInsensitive(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		event(2, 1, ledgermodels.KindSecondaryRequested, "0xalice", "AcmeInsurance"),
		created(3, 2, "0xbob", "City Hospital"),
	})

	targeting := state.TargetingName("acmeinsurance")
	require.Len(t, targeting, 1)
	assert.Equal(t, id.RecordID(1), targeting[0].RecordID)

	assert.Empty(t, state.TargetingName("OtherInsurance"))
}

func TestState_AwaitingPrimary(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
		created(2, 2, "0xbob", "city hospital"),
		event(3, 1, ledgermodels.KindPrimaryVerified, "0xdoc1", ""),
	})

	awaiting := state.AwaitingPrimary("City Hospital")
	require.Len(t, awaiting, 1)
	assert.Equal(t, id.RecordID(2), awaiting[0].RecordID)
}

func TestState_CloneIsIndependent(t *testing.T) {
	state := Project([]ledgermodels.Event{
		created(1, 1, "0xalice", "City Hospital"),
	})
	clone := state.Clone()

	next := event(2, 1, ledgermodels.KindPrimaryVerified, "0xdoc1", "")
	state.Apply(&next)

	assert.Equal(t, models.PrimaryVerified, state.Get(1).Primary)
	assert.Equal(t, models.PrimaryUnverified, clone.Get(1).Primary)
}
