//go:build integration

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"medichain/internal/auth/models"
	"medichain/internal/auth/store/user"
	registrymodels "medichain/internal/registry/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
	"medichain/pkg/testutil/containers"
)

const usersSchema = `
CREATE TABLE auth_users (
    user_id       UUID PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL,
    account_id    TEXT NOT NULL UNIQUE,
    display_name  TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
)`

type PostgresUserSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *user.Postgres
}

func TestPostgresUserSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserSuite))
}

func (s *PostgresUserSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.Exec(s.T(), usersSchema)
	s.store = user.NewPostgres(s.pg.DB)
}

func (s *PostgresUserSuite) SetupTest() {
	s.pg.Exec(s.T(), `TRUNCATE auth_users`)
}

func (s *PostgresUserSuite) mustUser(email, account, name string) *models.User {
	u, err := models.NewUser(email, "hashed-password", registrymodels.RoleOwner, id.AccountID(account), name)
	s.Require().NoError(err)
	return u
}

func (s *PostgresUserSuite) TestCreateAndFind() {
	ctx := context.Background()
	u := s.mustUser("alice@example.com", "0xalice", "Alice")

	s.Require().NoError(s.store.Create(ctx, u))

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, byID.Email)
	s.Equal(registrymodels.RoleOwner, byID.Role)
	s.Equal(id.AccountID("0xalice"), byID.AccountID)

	byEmail, err := s.store.FindByEmail(ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
}

func (s *PostgresUserSuite) TestFindByEmailIgnoresCase() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.mustUser("alice@example.com", "0xalice", "Alice")))

	found, err := s.store.FindByEmail(ctx, "Alice@Example.COM")
	s.Require().NoError(err)
	s.Equal("alice@example.com", found.Email)
}

func (s *PostgresUserSuite) TestDuplicateEmailRejected() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.mustUser("alice@example.com", "0xalice", "Alice")))

	err := s.store.Create(ctx, s.mustUser("alice@example.com", "0xother", "Other"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresUserSuite) TestDuplicateAccountRejected() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.mustUser("alice@example.com", "0xalice", "Alice")))

	err := s.store.Create(ctx, s.mustUser("alice2@example.com", "0xalice", "Alice Two"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresUserSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByEmail(context.Background(), "ghost@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
