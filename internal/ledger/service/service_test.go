package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"medichain/internal/ledger/models"
	"medichain/internal/ledger/service/mocks"
	dErrors "medichain/pkg/domain-errors"
)

type LedgerServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockStore     *mocks.MockStore
	mockPublisher *mocks.MockPublisher
	service       *Service
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockPublisher = mocks.NewMockPublisher(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.mockStore, logger, WithPublisher(s.mockPublisher))
}

func (s *LedgerServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LedgerServiceSuite) TestAppend_AssignsPosition() {
	event := &models.Event{RecordID: 1, Actor: "0xalice", Kind: models.KindRecordCreated}
	s.mockStore.EXPECT().Append(gomock.Any(), event).Return(uint64(7), nil)
	s.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	position, err := s.service.Append(context.Background(), event)
	s.Require().NoError(err)
	s.Equal(uint64(7), position)
	s.Equal(uint64(7), event.Position)
	s.False(event.AppendedAt.IsZero())
}

func (s *LedgerServiceSuite) TestAppend_RejectsUnknownKind() {
	// No store expectation: an unknown kind never reaches it.
	_, err := s.service.Append(context.Background(), &models.Event{RecordID: 1, Kind: "record_burned"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *LedgerServiceSuite) TestAppend_PublishFailureIsNonFatal() {
	event := &models.Event{RecordID: 1, Actor: "0xalice", Kind: models.KindPrimaryVerified}
	s.mockStore.EXPECT().Append(gomock.Any(), event).Return(uint64(3), nil)
	s.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	position, err := s.service.Append(context.Background(), event)
	s.Require().NoError(err, "the store is the source of truth")
	s.Equal(uint64(3), position)
}

func (s *LedgerServiceSuite) TestAppend_StoreFailure() {
	s.mockStore.EXPECT().Append(gomock.Any(), gomock.Any()).Return(uint64(0), errors.New("disk full"))

	_, err := s.service.Append(context.Background(), &models.Event{RecordID: 1, Kind: models.KindRecordCreated})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *LedgerServiceSuite) TestSubscribe_ReceivesAppends() {
	event := &models.Event{RecordID: 1, Actor: "0xalice", Kind: models.KindRecordCreated}
	s.mockStore.EXPECT().Append(gomock.Any(), event).Return(uint64(1), nil)
	s.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	ch := s.service.Subscribe()
	_, err := s.service.Append(context.Background(), event)
	s.Require().NoError(err)

	received := <-ch
	s.Equal(uint64(1), received.Position)
	s.Equal(models.KindRecordCreated, received.Kind)
}

func (s *LedgerServiceSuite) TestFetch_Propagates() {
	s.mockStore.EXPECT().Fetch(gomock.Any(), uint64(1), uint64(0)).
		Return([]models.Event{{Position: 1}}, nil)

	events, err := s.service.Fetch(context.Background(), 1, 0)
	s.Require().NoError(err)
	s.Len(events, 1)
}
