package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"medichain/internal/audit"
	ledgermodels "medichain/internal/ledger/models"
	recordmetrics "medichain/internal/records/metrics"
	"medichain/internal/records/models"
	registrymodels "medichain/internal/registry/models"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
	"medichain/pkg/platform/sentinel"
)

// Store persists records. AllocateID hands out strictly increasing IDs;
// an allocated ID is consumed whether or not a record is ever stored
// under it.
type Store interface {
	AllocateID(ctx context.Context) (id.RecordID, error)
	Put(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Record, error)
}

// Registry resolves verifier display names at mint time.
type Registry interface {
	FindByName(ctx context.Context, role registrymodels.Role, name string) (*registrymodels.Party, error)
	IsMember(ctx context.Context, role registrymodels.Role, accountID id.AccountID) (bool, error)
}

// Ledger accepts the creation event once the record is validated.
type Ledger interface {
	Append(ctx context.Context, event *ledgermodels.Event) (uint64, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service mints records. A mint is validated, allocated an ID, appended to
// the ledger, then stored; the ledger entry is the authoritative fact and
// the stored record a denormalized copy for lookups.
type Service struct {
	store          Store
	registry       Registry
	ledger         Ledger
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *recordmetrics.Metrics
}

type Option func(s *Service)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *recordmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, registry Registry, ledger Ledger, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, registry: registry, ledger: ledger, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint creates a record owned by owner, bound to artifactHash and declared
// for the named primary verifier. The verifier name is resolved
// case-insensitively against the registry; an unknown name rejects the mint.
// The allocated ID is burned on any failure after allocation.
func (s *Service) Mint(ctx context.Context, owner id.AccountID, artifactHash, primaryVerifierName string) (*models.Record, error) {
	if owner.IsNil() {
		return nil, s.reject(ctx, owner, "unauthenticated",
			dErrors.New(dErrors.CodeUnauthorized, "owner account required"))
	}
	if artifactHash == "" {
		return nil, s.reject(ctx, owner, "missing_artifact",
			dErrors.New(dErrors.CodeInvalidInput, "artifact hash is required"))
	}
	if primaryVerifierName == "" {
		return nil, s.reject(ctx, owner, "missing_verifier",
			dErrors.New(dErrors.CodeInvalidInput, "primary verifier name is required"))
	}

	isOwner, err := s.registry.IsMember(ctx, registrymodels.RoleOwner, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check owner membership")
	}
	if !isOwner {
		return nil, s.reject(ctx, owner, "not_owner",
			dErrors.New(dErrors.CodeUnauthorized, "only registered owners may mint records"))
	}

	verifier, err := s.registry.FindByName(ctx, registrymodels.RolePrimaryVerifier, primaryVerifierName)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, s.reject(ctx, owner, "unknown_verifier",
				dErrors.New(dErrors.CodeUnknownVerifier, "no registered primary verifier named "+primaryVerifierName))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve primary verifier")
	}

	recordID, err := s.store.AllocateID(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate record id")
	}

	record := &models.Record{
		ID:                  recordID,
		Owner:               owner,
		ArtifactHash:        artifactHash,
		PrimaryVerifierName: verifier.DisplayName,
		CreatedAt:           time.Now().UTC(),
	}

	if _, err := s.ledger.Append(ctx, &ledgermodels.Event{
		RecordID:     recordID,
		Actor:        owner,
		Kind:         ledgermodels.KindRecordCreated,
		Target:       verifier.DisplayName,
		ArtifactHash: artifactHash,
	}); err != nil {
		s.burn(ctx, recordID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append creation event")
	}

	if err := s.store.Put(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// The ledger entry stands; a reader can reconstruct the record
			// from it. The allocated ID stays consumed either way.
			s.burn(ctx, recordID)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record id already bound")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store record")
	}

	s.logAudit(ctx, audit.Event{
		Actor:    owner.String(),
		Action:   audit.ActionRecordMinted,
		RecordID: recordID.String(),
		Outcome:  audit.OutcomeAccepted,
	})
	if s.metrics != nil {
		s.metrics.IncrementMinted()
	}
	s.logger.InfoContext(ctx, "record minted",
		"record_id", recordID, "owner", owner, "primary_verifier", verifier.DisplayName)
	return record, nil
}

// Get returns the record by ID.
func (s *Service) Get(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	record, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return record, nil
}

// ListByOwner returns the owner's records in mint order.
func (s *Service) ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Record, error) {
	records, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return records, nil
}

func (s *Service) burn(ctx context.Context, recordID id.RecordID) {
	if s.metrics != nil {
		s.metrics.IncrementBurned()
	}
	s.logger.WarnContext(ctx, "record id burned", "record_id", recordID)
}

func (s *Service) reject(ctx context.Context, owner id.AccountID, reason string, err error) error {
	s.logAudit(ctx, audit.Event{
		Actor:   owner.String(),
		Action:  audit.ActionRecordMinted,
		Outcome: audit.OutcomeRejected,
		Reason:  reason,
	})
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
	return err
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}
