//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medichain/internal/records/models"
	"medichain/internal/records/store"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
	"medichain/pkg/testutil/containers"
)

var recordsSchema = []string{
	`CREATE SEQUENCE record_ids START 1`,
	`CREATE TABLE records (
	    record_id             BIGINT PRIMARY KEY,
	    owner_account         TEXT NOT NULL,
	    artifact_hash         TEXT NOT NULL,
	    primary_verifier_name TEXT NOT NULL,
	    created_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX records_owner_idx ON records (owner_account, record_id)`,
}

type PostgresRecordsSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.Postgres
}

func TestPostgresRecordsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRecordsSuite))
}

func (s *PostgresRecordsSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.Exec(s.T(), recordsSchema...)
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresRecordsSuite) SetupTest() {
	s.pg.Exec(s.T(), `TRUNCATE records`, `ALTER SEQUENCE record_ids RESTART WITH 1`)
}

func (s *PostgresRecordsSuite) record(recordID id.RecordID, owner string) *models.Record {
	return &models.Record{
		ID:                  recordID,
		Owner:               id.AccountID(owner),
		ArtifactHash:        "hash",
		PrimaryVerifierName: "City Hospital",
		CreatedAt:           time.Now().UTC(),
	}
}

func (s *PostgresRecordsSuite) TestAllocateID_StrictlyIncreasing() {
	ctx := context.Background()

	first, err := s.store.AllocateID(ctx)
	s.Require().NoError(err)
	second, err := s.store.AllocateID(ctx)
	s.Require().NoError(err)

	s.Equal(id.RecordID(1), first)
	s.Equal(id.RecordID(2), second)
}

func (s *PostgresRecordsSuite) TestAllocatedIDStaysBurnedWithoutPut() {
	ctx := context.Background()

	burned, err := s.store.AllocateID(ctx)
	s.Require().NoError(err)
	s.Equal(id.RecordID(1), burned)

	// The next allocation never reissues the unused number.
	next, err := s.store.AllocateID(ctx)
	s.Require().NoError(err)
	s.Equal(id.RecordID(2), next)
}

func (s *PostgresRecordsSuite) TestPutAndFindByID() {
	ctx := context.Background()
	recordID, err := s.store.AllocateID(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Put(ctx, s.record(recordID, "0xalice")))

	found, err := s.store.FindByID(ctx, recordID)
	s.Require().NoError(err)
	s.Equal(id.AccountID("0xalice"), found.Owner)
	s.Equal("City Hospital", found.PrimaryVerifierName)
}

func (s *PostgresRecordsSuite) TestPutDuplicateIDRejected() {
	ctx := context.Background()
	recordID, err := s.store.AllocateID(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Put(ctx, s.record(recordID, "0xalice")))
	err = s.store.Put(ctx, s.record(recordID, "0xbob"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresRecordsSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(context.Background(), id.RecordID(99))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresRecordsSuite) TestListByOwnerOrderedByID() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		recordID, err := s.store.AllocateID(ctx)
		s.Require().NoError(err)
		owner := "0xalice"
		if i == 1 {
			owner = "0xbob"
		}
		s.Require().NoError(s.store.Put(ctx, s.record(recordID, owner)))
	}

	records, err := s.store.ListByOwner(ctx, id.AccountID("0xalice"))
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(id.RecordID(1), records[0].ID)
	s.Equal(id.RecordID(3), records[1].ID)
}
