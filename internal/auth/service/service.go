package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medichain/internal/audit"
	"medichain/internal/auth/device"
	"medichain/internal/auth/jwttoken"
	authmetrics "medichain/internal/auth/metrics"
	"medichain/internal/auth/models"
	"medichain/internal/auth/secrets"
	registrymodels "medichain/internal/registry/models"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
	"medichain/pkg/platform/sentinel"
)

// UserStore persists credentials.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore persists logins.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
}

// Registry registers the signing-up account as a workflow party. The
// credential store and the party registry stay separate records; this is the
// one place that writes both.
type Registry interface {
	RegisterParty(ctx context.Context, caller id.AccountID, role registrymodels.Role, accountID id.AccountID, displayName string) (*registrymodels.Party, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service handles signup and login. Signup registers the account's party
// through the registry on the caller's behalf, acting as the configured
// registrar; the original admin gate still applies to direct registry calls.
type Service struct {
	users     UserStore
	sessions  SessionStore
	registry  Registry
	tokens    *jwttoken.Service
	registrar id.AccountID
	ttl       time.Duration
	logger    *slog.Logger

	auditPublisher AuditPublisher
	metrics        *authmetrics.Metrics
}

type Option func(s *Service)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(users UserStore, sessions SessionStore, registry Registry, tokens *jwttoken.Service, registrar id.AccountID, ttl time.Duration, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		users:     users,
		sessions:  sessions,
		registry:  registry,
		tokens:    tokens,
		registrar: registrar,
		ttl:       ttl,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Email       string
	Password    string
	Role        registrymodels.Role
	AccountID   id.AccountID
	DisplayName string
}

// Register creates credentials and registers the account as a party of the
// given role. Admin parties cannot be created through signup.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Role == registrymodels.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin accounts cannot self-register")
	}

	hash, err := secrets.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	u, err := models.NewUser(input.Email, hash, input.Role, input.AccountID, input.DisplayName)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, u.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}

	if _, err := s.registry.RegisterParty(ctx, s.registrar, input.Role, u.AccountID, u.DisplayName); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email or account already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logAudit(ctx, audit.Event{
		Actor:   u.AccountID.String(),
		Action:  audit.ActionUserRegistered,
		Outcome: audit.OutcomeAccepted,
		Reason:  string(input.Role),
	})
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "account_id", u.AccountID, "role", u.Role)
	return u, nil
}

// LoginResult carries the issued token and its session.
type LoginResult struct {
	Token   string
	User    *models.User
	Session *models.Session
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password, userAgent string) (*LoginResult, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, invalid
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if !secrets.VerifyPassword(u.PasswordHash, password) {
		s.logAudit(ctx, audit.Event{
			Actor:   u.AccountID.String(),
			Action:  audit.ActionUserLoggedIn,
			Outcome: audit.OutcomeRejected,
			Reason:  "bad_password",
		})
		if s.metrics != nil {
			s.metrics.IncrementLoginFailures()
		}
		return nil, invalid
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    u.ID,
		Device:    device.ParseUserAgent(userAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	token, err := s.tokens.GenerateAccessToken(u.ID, u.AccountID, string(u.Role), session.ID, s.ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logAudit(ctx, audit.Event{
		Actor:   u.AccountID.String(),
		Action:  audit.ActionUserLoggedIn,
		Outcome: audit.OutcomeAccepted,
	})
	if s.metrics != nil {
		s.metrics.IncrementLogins()
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", u.ID, "device", session.Device)
	return &LoginResult{Token: token, User: u, Session: session}, nil
}

// Logout deletes the session. Deleting an unknown session is a no-op.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	return nil
}

// Me returns the user behind a validated token.
func (s *Service) Me(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}
