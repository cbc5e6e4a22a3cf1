package snapshot

import (
	"context"
	"log/slog"

	ledgermodels "medichain/internal/ledger/models"
)

// Ledger is the slice of the ledger service the updater needs.
type Ledger interface {
	Fetch(ctx context.Context, from, to uint64) ([]ledgermodels.Event, error)
	Head(ctx context.Context) (uint64, error)
}

// Updater feeds a snapshot from a ledger subscription. The subscription
// channel may drop events under load; the updater detects the gap by
// position and catches up with a ranged fetch, so the snapshot never applies
// events out of order.
type Updater struct {
	snapshot *Snapshot
	ledger   Ledger
	inbox    <-chan ledgermodels.Event
	logger   *slog.Logger
}

func NewUpdater(snapshot *Snapshot, ledger Ledger, inbox <-chan ledgermodels.Event, logger *slog.Logger) *Updater {
	return &Updater{snapshot: snapshot, ledger: ledger, inbox: inbox, logger: logger}
}

// Bootstrap replays the whole ledger into the snapshot. Call before Run so
// events appended before the subscription existed are not lost.
func (u *Updater) Bootstrap(ctx context.Context) error {
	if err := u.catchUp(ctx, 0); err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "snapshot bootstrapped", "position", u.snapshot.Position())
	return nil
}

func (u *Updater) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-u.inbox:
			if err := u.apply(ctx, &event); err != nil {
				u.logger.ErrorContext(ctx, "snapshot update failed", "error", err, "position", event.Position)
			}
		}
	}
}

func (u *Updater) apply(ctx context.Context, event *ledgermodels.Event) error {
	at := u.snapshot.Position()
	switch {
	case event.Position <= at:
		// Already applied, likely seen during bootstrap.
		return nil
	case event.Position == at+1:
		u.snapshot.Apply(event)
		return nil
	default:
		// Dropped events between at and this one; fetch the gap inclusive
		// of the event we hold.
		return u.catchUp(ctx, event.Position)
	}
}

func (u *Updater) catchUp(ctx context.Context, to uint64) error {
	events, err := u.ledger.Fetch(ctx, u.snapshot.Position()+1, to)
	if err != nil {
		return err
	}
	for i := range events {
		u.snapshot.Apply(&events[i])
	}
	return nil
}
