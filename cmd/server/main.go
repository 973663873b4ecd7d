package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"laurel/internal/access/client"
	accesshandler "laurel/internal/access/handler"
	accessmetrics "laurel/internal/access/metrics"
	"laurel/internal/access/revocation"
	accessservice "laurel/internal/access/service"
	"laurel/internal/access/token"
	certhandler "laurel/internal/certificate/handler"
	certmetrics "laurel/internal/certificate/metrics"
	certservice "laurel/internal/certificate/service"
	expiryhandler "laurel/internal/expiry/handler"
	expirymetrics "laurel/internal/expiry/metrics"
	expiryservice "laurel/internal/expiry/service"
	"laurel/internal/expiry/workers/sweeper"
	mshandler "laurel/internal/multisig/handler"
	msmetrics "laurel/internal/multisig/metrics"
	msservice "laurel/internal/multisig/service"
	"laurel/internal/platform/config"
	"laurel/internal/platform/database"
	"laurel/internal/platform/health"
	"laurel/internal/platform/kafka"
	"laurel/internal/platform/kafka/producer"
	"laurel/internal/platform/locks"
	"laurel/internal/platform/logger"
	platformredis "laurel/internal/platform/redis"
	"laurel/internal/platform/tracing"
	policyadapter "laurel/internal/policy/adapter"
	policyhandler "laurel/internal/policy/handler"
	policymetrics "laurel/internal/policy/metrics"
	policyservice "laurel/internal/policy/service"
	prereqhandler "laurel/internal/prereq/handler"
	prereqmetrics "laurel/internal/prereq/metrics"
	prereqservice "laurel/internal/prereq/service"
	"laurel/internal/seeder"
	"laurel/pkg/platform/audit"
	"laurel/pkg/platform/audit/outbox"
	outboxmetrics "laurel/pkg/platform/audit/outbox/metrics"
	outboxworker "laurel/pkg/platform/audit/outbox/worker"
	"laurel/pkg/platform/audit/publisher"
)

const (
	tokenIssuer   = "laurel"
	tokenAudience = "laurel"

	guardTTL        = 30 * time.Second
	probeTimeout    = 3 * time.Second
	shutdownTimeout = 10 * time.Second
)

// main wires dependencies and runs the server. Business logic lives in the
// internal services; everything here is assembly.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing laurel",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
	)

	proxies, err := parseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	healthHandler := health.New(cfg.Server.Environment)

	// Storage. Postgres when configured, in-memory otherwise so the service
	// still runs on a laptop with no infrastructure at all.
	var stores *storeSet
	if cfg.Database.URL != "" {
		pool, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close() //nolint:errcheck // shutdown path
		stores = newPostgresStores(pool.DB())
		healthHandler.RegisterCheck("database", probe(pool.Health))
	} else {
		stores = newMemoryStores()
		log.Warn("DATABASE_URL not set; state is in-memory and lost on restart")
	}

	// Redis backs the reentrancy guard and the token revocation list when
	// present. Without it both fall back to in-process implementations,
	// which is only safe for a single instance.
	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var guard locks.Guard
	var trl revocation.TokenRevocationList
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck // shutdown path
		guard = locks.NewRedisGuard(rdb.Client, "laurel:guard:", guardTTL)
		trl = revocation.NewRedisTRL(rdb.Client)
		healthHandler.RegisterCheck("redis", probe(rdb.Health))
	} else {
		guard = locks.NewMemoryGuard()
		trl = revocation.NewInMemoryTRL()
		log.Warn("REDIS_URL not set; locks and token revocations are process-local")
	}

	// Audit pipeline. With Kafka configured, events stage in the outbox and
	// a relay publishes them to the stream; the audit log itself is written
	// either way.
	var auditSink audit.Store = stores.audit
	var relay *outboxworker.Worker
	if cfg.Kafka.Brokers != "" {
		prod, err := producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, log)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer prod.Close() //nolint:errcheck // shutdown path

		auditSink = outbox.NewSink(stores.outbox, outbox.WithNextStore(stores.audit))
		relay = outboxworker.New(stores.outbox, prod,
			outboxworker.WithTopic(cfg.Kafka.AuditTopic),
			outboxworker.WithMetrics(outboxmetrics.New()),
			outboxworker.WithLogger(log),
		)
		healthHandler.RegisterCheck("kafka", probe(kafka.NewHealthChecker(cfg.Kafka.Brokers).Check))
	}
	events := publisher.NewPublisher(auditSink, publisher.WithPublisherLogger(log))

	tracer := tracing.NewOTel()

	// Contexts, in dependency order. The access service authorizes every
	// other context; the policy service supplies quorum and renewal rules
	// and must be seeded before the limits below are read.
	accessSvc := accessservice.New(stores.roles,
		accessservice.WithLogger(log),
		accessservice.WithAuditPublisher(events),
		accessservice.WithMetrics(accessmetrics.New()),
	)
	tokens := token.NewService(cfg.Server.TokenSigningKey, tokenIssuer, tokenAudience, cfg.Server.TokenTTL)

	policySvc := policyservice.New(stores.policies, accessSvc, guard,
		policyservice.WithLogger(log),
		policyservice.WithAuditPublisher(events),
		policyservice.WithMetrics(policymetrics.New()),
	)
	if err := seedPolicy(ctx, policySvc, &cfg); err != nil {
		return fmt.Errorf("seed policy: %w", err)
	}

	prereqSvc := prereqservice.New(stores.graph, stores.certReader, accessSvc,
		prereqservice.WithLogger(log),
		prereqservice.WithAuditPublisher(events),
		prereqservice.WithMetrics(prereqmetrics.New()),
		prereqservice.WithTracer(tracer),
		prereqservice.WithGraphLimits(cfg.Governance.MaxGraphNodes, cfg.Governance.MaxTraversalDepth),
	)

	certSvc := certservice.New(stores.certs, accessSvc, &eligibilityAdapter{prereqs: prereqSvc}, guard,
		certservice.WithLogger(log),
		certservice.WithAuditPublisher(events),
		certservice.WithMetrics(certmetrics.New()),
		certservice.WithMaxMintBatch(cfg.Governance.MaxMintBatch),
	)

	executor := &operationExecutor{}
	approvalSvc := msservice.New(stores.requests, accessSvc, policyadapter.NewQuorumSource(policySvc), executor, guard,
		msservice.WithLogger(log),
		msservice.WithAuditPublisher(events),
		msservice.WithMetrics(msmetrics.New()),
		msservice.WithTracer(tracer),
		msservice.WithMaxBulkBatch(cfg.Governance.MaxBulkBatch),
		msservice.WithSweepBatchSize(cfg.Governance.SweepBatchSize),
	)

	lifecycleSvc := expiryservice.New(stores.certLifecycle, stores.renewals,
		&approvalRouterAdapter{coordinator: approvalSvc}, policyadapter.NewRenewalSource(policySvc), guard,
		expiryservice.WithLogger(log),
		expiryservice.WithAuditPublisher(events),
		expiryservice.WithMetrics(expirymetrics.New()),
		expiryservice.WithTracer(tracer),
		expiryservice.WithMaxSweepBatch(cfg.Governance.SweepBatchSize),
		expiryservice.WithRenewalWindow(cfg.Governance.RenewalWindow),
		expiryservice.WithNotificationLead(cfg.Governance.NotificationLead),
	)

	// Close the loop: approved operations execute against the certificate
	// and lifecycle services constructed above.
	executor.certs = certSvc
	executor.lifecycle = lifecycleSvc

	if cfg.Server.SeedDemoData {
		demo := seeder.New(seeder.Services{
			Access:    accessSvc,
			Policy:    policySvc,
			Courses:   prereqSvc,
			Certs:     certSvc,
			Approvals: approvalSvc,
			Lifecycle: lifecycleSvc,
		}, log)
		if err := demo.SeedAll(ctx); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	fingerprints := client.NewService(true)

	router := newRouter(routerDeps{
		cfg:         &cfg,
		logger:      log,
		proxies:     proxies,
		validator:   token.NewAdapter(tokens),
		revocations: &revocationAdapter{trl: trl},
		fingerprint: fingerprints.ComputeFingerprint,

		health:       healthHandler,
		certificates: certhandler.New(certSvc, log),
		courses:      prereqhandler.New(prereqSvc, log),
		approvals:    mshandler.New(approvalSvc, log),
		lifecycle:    expiryhandler.New(lifecycleSvc, log),
		policies:     policyhandler.New(policySvc, log),
		access:       accesshandler.New(accessSvc, tokens, trl, cfg.Server.TokenTTL, log),
	})

	sweep := sweeper.New(lifecycleSvc, approvalSvc,
		sweeper.WithLogger(log),
		sweeper.WithInterval(cfg.Governance.SweepInterval),
		sweeper.WithBatchSize(cfg.Governance.SweepBatchSize),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if relay != nil {
		relay.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweep.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if relay != nil {
			if err := relay.Stop(shutdownCtx); err != nil {
				log.Error("outbox relay drain failed", "error", err)
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// probe adapts a context-taking health check to the handler's CheckFunc.
func probe(check func(context.Context) error) health.CheckFunc {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		return check(ctx)
	}
}
