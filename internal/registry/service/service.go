package service

import (
	"context"
	"errors"
	"log/slog"

	"medichain/internal/audit"
	registrymetrics "medichain/internal/registry/metrics"
	"medichain/internal/registry/models"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
	"medichain/pkg/platform/sentinel"
)

// Store persists parties. There is deliberately no update or delete: role
// revocation and renames are non-goals, so the membership table only grows.
type Store interface {
	CreateIfNameAvailable(ctx context.Context, p *models.Party) error
	FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Party, error)
	FindByName(ctx context.Context, role models.Role, name string) (*models.Party, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.Party, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service gates membership of the attestation workflow. Privileged
// registration requires the calling account to already be an admin party.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *registrymetrics.Metrics
}

type Option func(s *Service)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap seeds the initial admin party so there is an account able to
// register everyone else. It is idempotent across restarts.
func (s *Service) Bootstrap(ctx context.Context, accountID id.AccountID, displayName string) error {
	if accountID.IsNil() {
		return nil
	}
	if _, err := s.store.FindByAccount(ctx, accountID); err == nil {
		return nil
	}
	p, err := models.NewParty(accountID, models.RoleAdmin, displayName)
	if err != nil {
		return err
	}
	if err := s.store.CreateIfNameAvailable(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to bootstrap admin party")
	}
	s.logger.InfoContext(ctx, "bootstrapped admin party", "account_id", accountID)
	return nil
}

// RegisterParty registers a new member. Only admin parties may call it.
func (s *Service) RegisterParty(ctx context.Context, caller id.AccountID, role models.Role, accountID id.AccountID, displayName string) (*models.Party, error) {
	if err := s.requireAdmin(ctx, caller); err != nil {
		s.reject(ctx, caller, err)
		return nil, err
	}

	p, err := models.NewParty(accountID, role, displayName)
	if err != nil {
		s.reject(ctx, caller, err)
		return nil, err
	}

	if err := s.store.CreateIfNameAvailable(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			err = dErrors.New(dErrors.CodeDuplicateName, "display name or account already registered for this role")
			s.reject(ctx, caller, err)
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register party")
	}

	s.logAudit(ctx, audit.Event{
		Actor:   caller.String(),
		Action:  audit.ActionPartyRegistered,
		Outcome: audit.OutcomeAccepted,
		Reason:  string(role) + ":" + p.NormalizedName,
	})
	if s.metrics != nil {
		s.metrics.IncrementRegistered(string(role))
	}
	return p, nil
}

// IsMember reports whether the account is registered under the role.
func (s *Service) IsMember(ctx context.Context, role models.Role, accountID id.AccountID) (bool, error) {
	p, err := s.store.FindByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up party")
	}
	return p.Role == role, nil
}

// NameOf returns the display name the account registered under.
func (s *Service) NameOf(ctx context.Context, accountID id.AccountID) (string, error) {
	p, err := s.store.FindByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "account is not a registered party")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up party")
	}
	return p.DisplayName, nil
}

// PartyOf returns the full party for the account.
func (s *Service) PartyOf(ctx context.Context, accountID id.AccountID) (*models.Party, error) {
	p, err := s.store.FindByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account is not a registered party")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up party")
	}
	return p, nil
}

// FindByName resolves a display name (case-insensitive) within a role.
func (s *Service) FindByName(ctx context.Context, role models.Role, name string) (*models.Party, error) {
	p, err := s.store.FindByName(ctx, role, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no registered "+string(role)+" named "+name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up party")
	}
	return p, nil
}

// ListByRole returns parties of a role in registration order.
func (s *Service) ListByRole(ctx context.Context, role models.Role) ([]*models.Party, error) {
	parties, err := s.store.ListByRole(ctx, role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list parties")
	}
	return parties, nil
}

func (s *Service) requireAdmin(ctx context.Context, caller id.AccountID) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller account required")
	}
	isAdmin, err := s.IsMember(ctx, models.RoleAdmin, caller)
	if err != nil {
		return err
	}
	if !isAdmin {
		return dErrors.New(dErrors.CodeUnauthorized, "only admin parties may register members")
	}
	return nil
}

func (s *Service) reject(ctx context.Context, caller id.AccountID, err error) {
	s.logAudit(ctx, audit.Event{
		Actor:   caller.String(),
		Action:  audit.ActionPartyRegistered,
		Outcome: audit.OutcomeRejected,
		Reason:  err.Error(),
	})
	if s.metrics != nil {
		s.metrics.IncrementRejected()
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}
