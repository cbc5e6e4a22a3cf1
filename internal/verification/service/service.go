package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"medichain/internal/audit"
	ledgermodels "medichain/internal/ledger/models"
	registrymodels "medichain/internal/registry/models"
	verificationmetrics "medichain/internal/verification/metrics"
	"medichain/internal/verification/models"
	"medichain/internal/verification/projection"
	"medichain/internal/verification/snapshot"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
)

// Ledger is the slice of the ledger service the state machine needs.
type Ledger interface {
	Append(ctx context.Context, event *ledgermodels.Event) (uint64, error)
	Fetch(ctx context.Context, from, to uint64) ([]ledgermodels.Event, error)
	Head(ctx context.Context) (uint64, error)
}

// Registry resolves parties for the transition guards.
type Registry interface {
	PartyOf(ctx context.Context, accountID id.AccountID) (*registrymodels.Party, error)
	FindByName(ctx context.Context, role registrymodels.Role, name string) (*registrymodels.Party, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs the verification state machine. Guards are evaluated against
// a write-side projection held under the append lock, so a transition is
// checked and appended atomically: nothing that violates a guard ever
// reaches the ledger. Reads are served from the shared snapshot, which
// trails the ledger by at most the subscription lag.
type Service struct {
	ledger   Ledger
	registry Registry
	snapshot *snapshot.Snapshot
	logger   *slog.Logger

	// mu serializes transitions; state is the guard's view of the ledger
	// and is advanced synchronously on every accepted append.
	mu    sync.Mutex
	state *projection.State

	auditPublisher AuditPublisher
	metrics        *verificationmetrics.Metrics
}

type Option func(s *Service)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *verificationmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(ledger Ledger, registry Registry, snap *snapshot.Snapshot, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		ledger:   ledger,
		registry: registry,
		snapshot: snap,
		logger:   logger,
		state:    projection.NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rebuild replays the whole ledger into the write-side state. Call once at
// startup before serving transitions.
func (s *Service) Rebuild(ctx context.Context) error {
	started := time.Now()
	events, err := s.ledger.Fetch(ctx, 1, 0)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = projection.Project(events)
	position := s.state.Position()
	anomalies := len(s.state.Anomalies())
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveReplay(time.Since(started).Seconds())
	}
	s.logger.InfoContext(ctx, "verification state rebuilt",
		"position", position, "anomalies", anomalies)
	return nil
}

// VerifyPrimary flips the primary tier of the record to Verified. Only the
// primary verifier the record was declared for may do it. Repeats are
// idempotent no-ops.
func (s *Service) VerifyPrimary(ctx context.Context, caller id.AccountID, recordID id.RecordID) (*models.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catchUp(ctx); err != nil {
		return nil, err
	}
	status := s.state.Get(recordID)
	if status == nil {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindPrimaryVerified,
			dErrors.New(dErrors.CodeNotFound, "record not found"))
	}

	party, err := s.callerParty(ctx, caller)
	if err != nil {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindPrimaryVerified, err)
	}
	if party.Role != registrymodels.RolePrimaryVerifier ||
		party.NormalizedName != registrymodels.NormalizeName(status.PrimaryVerifierName) {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindPrimaryVerified,
			dErrors.New(dErrors.CodeUnauthorized, "only the record's primary verifier may verify it"))
	}

	if status.Primary == models.PrimaryVerified {
		return s.repeat(ctx, status, ledgermodels.KindPrimaryVerified), nil
	}

	return s.append(ctx, caller, &ledgermodels.Event{
		RecordID: recordID,
		Actor:    caller,
		Kind:     ledgermodels.KindPrimaryVerified,
	})
}

// RequestSecondary asks the named secondary verifier to approve the record.
// The record's owner or its primary verifier may request; the target must be
// a registered secondary verifier. Once a request exists the secondary
// target is fixed: later requests are no-ops whatever their target, even
// after approval.
func (s *Service) RequestSecondary(ctx context.Context, caller id.AccountID, recordID id.RecordID, targetName string) (*models.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catchUp(ctx); err != nil {
		return nil, err
	}
	status := s.state.Get(recordID)
	if status == nil {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindSecondaryRequested,
			dErrors.New(dErrors.CodeNotFound, "record not found"))
	}

	party, err := s.callerParty(ctx, caller)
	if err != nil {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindSecondaryRequested, err)
	}
	isOwner := status.Owner == caller
	isPrimary := party.Role == registrymodels.RolePrimaryVerifier &&
		party.NormalizedName == registrymodels.NormalizeName(status.PrimaryVerifierName)
	if !isOwner && !isPrimary {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindSecondaryRequested,
			dErrors.New(dErrors.CodeUnauthorized, "only the record's owner or primary verifier may request secondary verification"))
	}

	target, err := s.registry.FindByName(ctx, registrymodels.RoleSecondaryVerifier, targetName)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			err = dErrors.New(dErrors.CodeUnknownVerifier, "no registered secondary verifier named "+targetName)
		}
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindSecondaryRequested, err)
	}

	if status.Secondary != models.SecondaryNotRequested {
		return s.repeat(ctx, status, ledgermodels.KindSecondaryRequested), nil
	}

	return s.append(ctx, caller, &ledgermodels.Event{
		RecordID: recordID,
		Actor:    caller,
		Kind:     ledgermodels.KindSecondaryRequested,
		Target:   target.DisplayName,
	})
}

// ApproveSecondary approves a pending request. Only the verifier the request
// named may approve. Approving again is a no-op; approving without a request
// is an invalid transition.
func (s *Service) ApproveSecondary(ctx context.Context, caller id.AccountID, recordID id.RecordID) (*models.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catchUp(ctx); err != nil {
		return nil, err
	}
	status := s.state.Get(recordID)
	if status == nil {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindSecondaryVerified,
			dErrors.New(dErrors.CodeNotFound, "record not found"))
	}

	if status.Secondary == models.SecondaryNotRequested {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindSecondaryVerified,
			dErrors.New(dErrors.CodeInvalidTransition, "no secondary verification requested"))
	}

	party, err := s.callerParty(ctx, caller)
	if err != nil {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindSecondaryVerified, err)
	}
	if party.Role != registrymodels.RoleSecondaryVerifier ||
		party.NormalizedName != registrymodels.NormalizeName(status.SecondaryTarget) {
		return nil, s.reject(ctx, caller, recordID, ledgermodels.KindSecondaryVerified,
			dErrors.New(dErrors.CodeUnauthorized, "only the requested verifier may approve"))
	}

	if status.Secondary == models.SecondaryApproved {
		return s.repeat(ctx, status, ledgermodels.KindSecondaryVerified), nil
	}

	return s.append(ctx, caller, &ledgermodels.Event{
		RecordID: recordID,
		Actor:    caller,
		Kind:     ledgermodels.KindSecondaryVerified,
	})
}

// Status returns the snapshot's view of one record.
func (s *Service) Status(ctx context.Context, recordID id.RecordID) (*models.Status, error) {
	status := s.snapshot.Get(recordID)
	if status == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return status, nil
}

// OwnedBy returns the statuses of the account's records.
func (s *Service) OwnedBy(ctx context.Context, owner id.AccountID) ([]*models.Status, error) {
	return s.snapshot.OwnedBy(owner), nil
}

// Inbox returns the per-role work list of the calling party: records
// awaiting a primary verifier, or requests targeting a secondary verifier.
func (s *Service) Inbox(ctx context.Context, caller id.AccountID) ([]*models.Status, error) {
	party, err := s.registry.PartyOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	switch party.Role {
	case registrymodels.RolePrimaryVerifier:
		return s.snapshot.AwaitingPrimary(party.DisplayName), nil
	case registrymodels.RoleSecondaryVerifier:
		return s.snapshot.TargetingName(party.DisplayName), nil
	case registrymodels.RoleOwner:
		return s.snapshot.OwnedBy(caller), nil
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "role has no verification inbox")
	}
}

// Health reports snapshot freshness and fold anomalies for operators. The
// ledger head and the caller's view are gathered concurrently.
func (s *Service) Health(ctx context.Context) (*HealthReport, error) {
	report := &HealthReport{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		head, err := s.ledger.Head(gctx)
		if err != nil {
			return err
		}
		report.LedgerHead = head
		return nil
	})
	g.Go(func() error {
		report.SnapshotPosition = s.snapshot.Position()
		report.Anomalies = s.snapshot.Anomalies()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.metrics != nil && report.LedgerHead >= report.SnapshotPosition {
		s.metrics.SetSnapshotLag(float64(report.LedgerHead - report.SnapshotPosition))
	}
	return report, nil
}

// HealthReport describes how far the snapshot trails the ledger and what
// the fold could not apply.
type HealthReport struct {
	LedgerHead       uint64
	SnapshotPosition uint64
	Anomalies        []projection.Anomaly
}

func (s *Service) append(ctx context.Context, caller id.AccountID, event *ledgermodels.Event) (*models.Status, error) {
	position, err := s.ledger.Append(ctx, event)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append transition")
	}
	event.Position = position

	// Mints appended between the guard check and this append occupy the
	// positions in between; fold them first so the state stays in ledger
	// order.
	if err := s.applyThrough(ctx, position-1); err != nil {
		return nil, err
	}
	s.state.Apply(event)

	s.logAudit(ctx, audit.Event{
		Actor:    caller.String(),
		Action:   auditAction(event.Kind),
		RecordID: event.RecordID.String(),
		Outcome:  audit.OutcomeAccepted,
	})
	if s.metrics != nil {
		s.metrics.IncrementAccepted(string(event.Kind))
	}
	s.logger.InfoContext(ctx, "transition accepted",
		"kind", event.Kind, "record_id", event.RecordID, "actor", caller, "position", position)
	return s.state.Get(event.RecordID), nil
}

func (s *Service) repeat(ctx context.Context, status *models.Status, kind ledgermodels.Kind) *models.Status {
	if s.metrics != nil {
		s.metrics.IncrementRepeat(string(kind))
	}
	s.logger.DebugContext(ctx, "transition already applied",
		"kind", kind, "record_id", status.RecordID)
	return status
}

func (s *Service) reject(ctx context.Context, caller id.AccountID, recordID id.RecordID, kind ledgermodels.Kind, err error) error {
	s.logAudit(ctx, audit.Event{
		Actor:    caller.String(),
		Action:   auditAction(kind),
		RecordID: recordID.String(),
		Outcome:  audit.OutcomeRejected,
		Reason:   err.Error(),
	})
	if s.metrics != nil {
		s.metrics.IncrementRejected(string(kind), rejectReason(err))
	}
	return err
}

// catchUp folds the ledger tail into the guard state before a transition is
// evaluated. Records are minted by another service, so their RecordCreated
// events reach this state only through the ledger. Call with mu held.
func (s *Service) catchUp(ctx context.Context) error {
	head, err := s.ledger.Head(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger head")
	}
	return s.applyThrough(ctx, head)
}

func (s *Service) applyThrough(ctx context.Context, position uint64) error {
	from := s.state.Position() + 1
	if from > position {
		return nil
	}
	events, err := s.ledger.Fetch(ctx, from, position)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch ledger tail")
	}
	for i := range events {
		s.state.Apply(&events[i])
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

// callerParty resolves the caller, translating an unknown account into the
// guard's unauthorized error.
func (s *Service) callerParty(ctx context.Context, caller id.AccountID) (*registrymodels.Party, error) {
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller account required")
	}
	party, err := s.registry.PartyOf(ctx, caller)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not a registered party")
		}
		return nil, err
	}
	return party, nil
}

func auditAction(kind ledgermodels.Kind) string {
	switch kind {
	case ledgermodels.KindRecordCreated:
		return audit.ActionRecordMinted
	case ledgermodels.KindPrimaryVerified:
		return audit.ActionPrimaryVerified
	case ledgermodels.KindSecondaryRequested:
		return audit.ActionSecondaryRequested
	case ledgermodels.KindSecondaryVerified:
		return audit.ActionSecondaryVerified
	default:
		return string(kind)
	}
}

func rejectReason(err error) string {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return string(domainErr.Code)
	}
	return "internal"
}
