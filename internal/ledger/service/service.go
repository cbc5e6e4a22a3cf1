package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	ledgermetrics "medichain/internal/ledger/metrics"
	"medichain/internal/ledger/models"
	dErrors "medichain/pkg/domain-errors"
)

// Store is the durable, totally ordered event sequence. Append assigns the
// position; Fetch returns events in ledger order regardless of batching.
type Store interface {
	Append(ctx context.Context, event *models.Event) (uint64, error)
	Fetch(ctx context.Context, from, to uint64) ([]models.Event, error)
	Head(ctx context.Context) (uint64, error)
}

// Publisher fans appended events out to downstream consumers. The ledger
// store, not the publisher, is the source of truth: publish failures are
// logged and counted, never rolled back.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Service wraps the ledger store with fan-out, subscriptions, tracing, and
// metrics. Guard checks live in the verification service; by the time an
// event reaches Append it has already been validated.
type Service struct {
	store     Store
	logger    *slog.Logger
	publisher Publisher
	metrics   *ledgermetrics.Metrics
	tracer    trace.Tracer

	subMu sync.Mutex
	subs  []chan models.Event
}

type Option func(s *Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("medichain/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append stores the event, then fans it out to Kafka and in-process
// subscribers. The assigned position is written back into the event.
func (s *Service) Append(ctx context.Context, event *models.Event) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Append")
	defer span.End()

	if !event.Kind.Known() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "unknown event kind")
	}
	if event.AppendedAt.IsZero() {
		event.AppendedAt = time.Now().UTC()
	}

	position, err := s.store.Append(ctx, event)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append ledger event")
	}
	event.Position = position
	if s.metrics != nil {
		s.metrics.ObserveAppend(string(event.Kind), position)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *event); err != nil {
			s.logger.ErrorContext(ctx, "ledger fan-out failed",
				"error", err,
				"position", position,
				"record_id", event.RecordID,
			)
			if s.metrics != nil {
				s.metrics.IncrementFanoutFailures()
			}
		}
	}

	s.notify(*event)
	return position, nil
}

// Fetch returns events in [from, to] in ledger order. Zero `to` means head.
func (s *Service) Fetch(ctx context.Context, from, to uint64) ([]models.Event, error) {
	events, err := s.store.Fetch(ctx, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch ledger events")
	}
	if s.metrics != nil {
		s.metrics.IncrementFetches()
	}
	return events, nil
}

// Head returns the position of the most recent event, 0 when empty.
func (s *Service) Head(ctx context.Context) (uint64, error) {
	head, err := s.store.Head(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger head")
	}
	return head, nil
}

// Subscribe returns a channel of appended events for in-process consumers,
// such as the snapshot updater. The channel is buffered; a consumer that
// falls behind misses events and must catch up by position via Fetch.
func (s *Service) Subscribe() <-chan models.Event {
	ch := make(chan models.Event, 256)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Service) notify(event models.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- event:
		default:
			// Slow consumer; it recovers via positional catch-up.
		}
	}
}
