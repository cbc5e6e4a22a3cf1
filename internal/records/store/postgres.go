package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"medichain/internal/records/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists records. ID allocation uses a dedicated sequence so
// failed mints still consume their number.
//
// Schema:
//
//	CREATE SEQUENCE record_ids START 1;
//	CREATE TABLE records (
//	    record_id             BIGINT PRIMARY KEY,
//	    owner_account         TEXT NOT NULL,
//	    artifact_hash         TEXT NOT NULL,
//	    primary_verifier_name TEXT NOT NULL,
//	    created_at            TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX records_owner_idx ON records (owner_account, record_id);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) AllocateID(ctx context.Context) (id.RecordID, error) {
	var allocated uint64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('record_ids')`).Scan(&allocated); err != nil {
		return 0, fmt.Errorf("allocate record id: %w", err)
	}
	return id.RecordID(allocated), nil
}

func (s *Postgres) Put(ctx context.Context, record *models.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (record_id, owner_account, artifact_hash, primary_verifier_name, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uint64(record.ID), string(record.Owner), record.ArtifactHash, record.PrimaryVerifierName, record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT record_id, owner_account, artifact_hash, primary_verifier_name, created_at
		FROM records
		WHERE record_id = $1`,
		uint64(recordID),
	)
	return scanRecord(row)
}

func (s *Postgres) ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, owner_account, artifact_hash, primary_verifier_name, created_at
		FROM records
		WHERE owner_account = $1
		ORDER BY record_id ASC`,
		string(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		r        models.Record
		recordID uint64
		owner    string
	)
	if err := row.Scan(&recordID, &owner, &r.ArtifactHash, &r.PrimaryVerifierName, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}
	r.ID = id.RecordID(recordID)
	r.Owner = id.AccountID(owner)
	return &r, nil
}
