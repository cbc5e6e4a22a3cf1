// Command server runs the MediChain attestation service: party registry,
// record minting, the append-only ledger, and the verification workflow
// behind a single HTTP API. Optional backends (Postgres, Redis, Kafka) are
// enabled by configuration; when absent the service runs fully in memory.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medichain/internal/artifact"
	artifacthandler "medichain/internal/artifact/handler"
	"medichain/internal/audit"
	authhandler "medichain/internal/auth/handler"
	"medichain/internal/auth/jwttoken"
	authmetrics "medichain/internal/auth/metrics"
	authservice "medichain/internal/auth/service"
	sessionstore "medichain/internal/auth/store/session"
	userstore "medichain/internal/auth/store/user"
	httpapi "medichain/internal/http"
	ledgerkafka "medichain/internal/ledger/kafka"
	ledgermetrics "medichain/internal/ledger/metrics"
	ledgerservice "medichain/internal/ledger/service"
	ledgerstore "medichain/internal/ledger/store"
	"medichain/internal/platform/config"
	"medichain/internal/platform/httpserver"
	platformkafka "medichain/internal/platform/kafka"
	"medichain/internal/platform/logger"
	"medichain/internal/platform/postgres"
	platformredis "medichain/internal/platform/redis"
	ratelimitmw "medichain/internal/ratelimit/middleware"
	ratelimitstore "medichain/internal/ratelimit/store"
	recordhandler "medichain/internal/records/handler"
	recordmetrics "medichain/internal/records/metrics"
	recordservice "medichain/internal/records/service"
	recordstore "medichain/internal/records/store"
	registryhandler "medichain/internal/registry/handler"
	registrymetrics "medichain/internal/registry/metrics"
	registryservice "medichain/internal/registry/service"
	registrystore "medichain/internal/registry/store"
	verificationhandler "medichain/internal/verification/handler"
	verificationmetrics "medichain/internal/verification/metrics"
	verificationservice "medichain/internal/verification/service"
	"medichain/internal/verification/snapshot"
	id "medichain/pkg/domain"
)

const (
	jwtIssuer   = "medichain"
	jwtAudience = "medichain-api"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registrar, err := id.ParseAccountID(cfg.RegistrarAccount)
	if err != nil {
		return fmt.Errorf("registrar account: %w", err)
	}

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		log.Info("postgres connected")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	// Audit events are queued and persisted off the request path.
	auditStore := audit.NewInMemoryStore()
	auditInbox := make(chan audit.Event, 256)
	auditPub := audit.NewAsyncPublisher(auditInbox)
	auditWorker := audit.NewWorker(auditStore, auditInbox)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	var regStore registryservice.Store
	if db != nil {
		regStore = registrystore.NewPostgres(db)
	} else {
		regStore = registrystore.NewInMemory()
	}
	registrySvc := registryservice.New(regStore, log,
		registryservice.WithAuditPublisher(auditPub),
		registryservice.WithMetrics(registrymetrics.New()),
	)
	if err := registrySvc.Bootstrap(ctx, registrar, "Registrar"); err != nil {
		return fmt.Errorf("bootstrap registry: %w", err)
	}

	var ldgStore ledgerservice.Store
	if db != nil {
		ldgStore = ledgerstore.NewPostgres(db)
	} else {
		ldgStore = ledgerstore.NewInMemory()
	}
	ledgerOpts := []ledgerservice.Option{ledgerservice.WithMetrics(ledgermetrics.New())}
	if cfg.Kafka.Brokers != "" {
		producer, err := platformkafka.New(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Topic); err != nil {
			return fmt.Errorf("ensure ledger topic: %w", err)
		}
		ledgerOpts = append(ledgerOpts, ledgerservice.WithPublisher(ledgerkafka.NewPublisher(producer, cfg.Kafka.Topic)))
		log.Info("ledger fan-out enabled", "topic", cfg.Kafka.Topic)
	}
	ledgerSvc := ledgerservice.New(ldgStore, log, ledgerOpts...)

	var recStore recordservice.Store
	if db != nil {
		recStore = recordstore.NewPostgres(db)
	} else {
		recStore = recordstore.NewInMemory()
	}
	recordSvc := recordservice.New(recStore, registrySvc, ledgerSvc, log,
		recordservice.WithAuditPublisher(auditPub),
		recordservice.WithMetrics(recordmetrics.New()),
	)

	snap := snapshot.New()
	verificationSvc := verificationservice.New(ledgerSvc, registrySvc, snap, log,
		verificationservice.WithAuditPublisher(auditPub),
		verificationservice.WithMetrics(verificationmetrics.New()),
	)
	if err := verificationSvc.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild verification state: %w", err)
	}
	updater := snapshot.NewUpdater(snap, ledgerSvc, ledgerSvc.Subscribe(), log)
	if err := updater.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap snapshot: %w", err)
	}
	go func() {
		if err := updater.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("snapshot updater stopped", "error", err)
		}
	}()

	artifactStore := artifact.NewInMemory()
	var pinner artifacthandler.Pinner
	if cfg.PinningURL != "" {
		pinner = artifact.NewPinner(cfg.PinningURL, log)
		log.Info("artifact pinning enabled", "url", cfg.PinningURL)
	}

	var users authservice.UserStore
	if db != nil {
		users = userstore.NewPostgres(db)
	} else {
		users = userstore.NewInMemory()
	}
	var sessions authservice.SessionStore
	if redisClient != nil {
		sessions = sessionstore.NewRedis(redisClient)
	} else {
		sessions = sessionstore.NewInMemory()
	}
	tokens := jwttoken.New(cfg.JWTSigningKey, jwtIssuer, jwtAudience)
	authSvc := authservice.New(users, sessions, registrySvc, tokens, registrar, cfg.SessionTTL, log,
		authservice.WithAuditPublisher(auditPub),
		authservice.WithMetrics(authmetrics.New()),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:           authhandler.New(authSvc, log),
		Registry:       registryhandler.New(registrySvc, registrar, log),
		Records:        recordhandler.New(recordSvc, log),
		Verification:   verificationhandler.New(verificationSvc, log),
		Artifacts:      artifacthandler.New(artifactStore, pinner, log),
		TokenValidator: jwttoken.NewMiddlewareAdapter(tokens),
		AdminToken:     cfg.AdminToken,
		Logger:         log,
		LoginLimiter:   ratelimitmw.Limit(ratelimitstore.NewInMemory(), 20, time.Minute, log),
		Healthy: func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if db != nil {
				if err := db.PingContext(checkCtx); err != nil {
					return err
				}
			}
			if redisClient != nil {
				if err := redisClient.HealthCheck(checkCtx); err != nil {
					return err
				}
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting medichain server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
