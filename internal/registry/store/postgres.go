package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"medichain/internal/registry/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// Postgres persists parties. Uniqueness of (role, normalized_name) and of
// account_id is enforced by constraints so concurrent registrations cannot
// race past the application check.
//
// Schema:
//
//	CREATE TABLE registry_parties (
//	    seq             BIGSERIAL PRIMARY KEY,
//	    account_id      TEXT NOT NULL UNIQUE,
//	    role            TEXT NOT NULL,
//	    display_name    TEXT NOT NULL,
//	    normalized_name TEXT NOT NULL,
//	    registered_at   TIMESTAMPTZ NOT NULL,
//	    UNIQUE (role, normalized_name)
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateIfNameAvailable(ctx context.Context, p *models.Party) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registry_parties (account_id, role, display_name, normalized_name, registered_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(p.AccountID), string(p.Role), p.DisplayName, p.NormalizedName, p.RegisteredAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("party registration collision: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert party: %w", err)
	}
	return nil
}

func (s *Postgres) FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Party, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT account_id, role, display_name, normalized_name, registered_at
		FROM registry_parties
		WHERE account_id = $1`,
		string(accountID),
	)
	return scanParty(row)
}

func (s *Postgres) FindByName(ctx context.Context, role models.Role, name string) (*models.Party, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT account_id, role, display_name, normalized_name, registered_at
		FROM registry_parties
		WHERE role = $1 AND normalized_name = $2`,
		string(role), models.NormalizeName(name),
	)
	return scanParty(row)
}

func (s *Postgres) ListByRole(ctx context.Context, role models.Role) ([]*models.Party, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, role, display_name, normalized_name, registered_at
		FROM registry_parties
		WHERE role = $1
		ORDER BY seq ASC`,
		string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	var parties []*models.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parties: %w", err)
	}
	return parties, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParty(row rowScanner) (*models.Party, error) {
	var (
		p       models.Party
		account string
		role    string
	)
	if err := row.Scan(&account, &role, &p.DisplayName, &p.NormalizedName, &p.RegisteredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan party: %w", err)
	}
	p.AccountID = id.AccountID(account)
	p.Role = models.Role(role)
	return &p, nil
}
