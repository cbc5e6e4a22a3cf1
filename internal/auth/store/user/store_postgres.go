package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medichain/internal/auth/models"
	registrymodels "medichain/internal/registry/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists users.
//
// Schema:
//
//	CREATE TABLE auth_users (
//	    user_id       UUID PRIMARY KEY,
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    role          TEXT NOT NULL,
//	    account_id    TEXT NOT NULL UNIQUE,
//	    display_name  TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_users (user_id, email, password_hash, role, account_id, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(u.ID), u.Email, u.PasswordHash, string(u.Role), string(u.AccountID), u.DisplayName, u.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, role, account_id, display_name, created_at
		FROM auth_users
		WHERE user_id = $1`,
		uuid.UUID(userID),
	))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, role, account_id, display_name, created_at
		FROM auth_users
		WHERE email = lower($1)`,
		email,
	))
}

func (s *Postgres) scanOne(row *sql.Row) (*models.User, error) {
	var (
		u       models.User
		userID  uuid.UUID
		role    string
		account string
	)
	if err := row.Scan(&userID, &u.Email, &u.PasswordHash, &role, &account, &u.DisplayName, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(userID)
	u.Role = registrymodels.Role(role)
	u.AccountID = id.AccountID(account)
	return &u, nil
}
