package store

import (
	"context"
	"database/sql"
	"fmt"

	"medichain/internal/ledger/models"
	id "medichain/pkg/domain"
)

// Postgres persists the ledger in a single append-only table. Position
// assignment rides on a BIGSERIAL so the database hands out the total order.
//
// Schema:
//
//	CREATE TABLE ledger_events (
//	    position      BIGSERIAL PRIMARY KEY,
//	    record_id     BIGINT NOT NULL,
//	    actor         TEXT NOT NULL,
//	    kind          TEXT NOT NULL,
//	    target        TEXT NOT NULL DEFAULT '',
//	    artifact_hash TEXT NOT NULL DEFAULT '',
//	    appended_at   TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, event *models.Event) (uint64, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO ledger_events (record_id, actor, kind, target, artifact_hash, appended_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING position`,
		uint64(event.RecordID), string(event.Actor), string(event.Kind),
		event.Target, event.ArtifactHash, event.AppendedAt,
	)
	if err := row.Scan(&event.Position); err != nil {
		return 0, fmt.Errorf("append ledger event: %w", err)
	}
	return event.Position, nil
}

func (s *Postgres) Fetch(ctx context.Context, from, to uint64) ([]models.Event, error) {
	if from < 1 {
		from = 1
	}
	query := `
		SELECT position, record_id, actor, kind, target, artifact_hash, appended_at
		FROM ledger_events
		WHERE position >= $1`
	args := []any{from}
	if to > 0 {
		query += ` AND position <= $2`
		args = append(args, to)
	}
	query += ` ORDER BY position ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev       models.Event
			recordID uint64
			actor    string
			kind     string
		)
		if err := rows.Scan(&ev.Position, &recordID, &actor, &kind, &ev.Target, &ev.ArtifactHash, &ev.AppendedAt); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		ev.RecordID = id.RecordID(recordID)
		ev.Actor = id.AccountID(actor)
		ev.Kind = models.Kind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return events, nil
}

func (s *Postgres) Head(ctx context.Context) (uint64, error) {
	var head sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM ledger_events`).Scan(&head); err != nil {
		return 0, fmt.Errorf("read ledger head: %w", err)
	}
	if !head.Valid {
		return 0, nil
	}
	return uint64(head.Int64), nil
}
