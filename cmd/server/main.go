package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"consentflow/internal/audit"
	"consentflow/internal/counter"
	"consentflow/internal/gateway"
	"consentflow/internal/platform/config"
	"consentflow/internal/platform/httpserver"
	"consentflow/internal/platform/logger"
	"consentflow/internal/platform/metrics"
	"consentflow/internal/platform/middleware"
	"consentflow/internal/platform/postgres"
	"consentflow/internal/platform/redis"
	"consentflow/internal/progress"
	"consentflow/internal/retry"
	httptransport "consentflow/internal/transport/http"
	"consentflow/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Journey logic lives in internal/workflow.
func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("consentflow stopped", "error", err)
		os.Exit(1)
	}
}

// stores bundles the backend-specific stores and what must be closed on exit.
type stores struct {
	counters counter.Store
	progress progress.Store
	health   map[string]httptransport.HealthCheck
	closers  []func() error
}

func (s *stores) close(log *slog.Logger) {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Warn("close store", "error", err)
		}
	}
}

func buildStores(ctx context.Context, cfg config.Server, m *metrics.Metrics, log *slog.Logger) (*stores, error) {
	s := &stores{health: map[string]httptransport.HealthCheck{}}
	if cfg.StoreBackend == config.BackendMemory {
		s.counters = counter.NewInMemoryStore()
		s.progress = progress.NewInMemoryStore()
		log.Info("using in-memory stores")
		return s, nil
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, rc.Close)
	s.health["redis"] = rc.Health
	s.progress = progress.NewRedisStore(rc.Client, cfg.SessionTTL)

	switch cfg.StoreBackend {
	case config.BackendRedis:
		s.counters = counter.NewRedisStore(rc.Client,
			counter.WithTTL(cfg.SessionTTL),
			counter.WithMetrics(m),
		)
	case config.BackendPostgres:
		var db *sql.DB
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			s.close(log)
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		s.health["postgres"] = db.PingContext
		pg := counter.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			s.close(log)
			return nil, fmt.Errorf("migrate counters: %w", err)
		}
		s.counters = pg
	}
	log.Info("stores ready", "backend", cfg.StoreBackend)
	return s, nil
}

func buildAuditSink(cfg config.AuditConfig, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Brokers) == 0 {
		return audit.NewLogStore(logger.WithComponent(log, "audit")), func() {}, nil
	}
	ks, err := audit.NewKafkaStore(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	return ks, ks.Close, nil
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := buildStores(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer st.close(log)

	policy := retry.DefaultPolicy()
	if cfg.RetryPolicyFile != "" {
		if policy, err = retry.LoadPolicy(cfg.RetryPolicyFile); err != nil {
			return err
		}
	}
	evaluator, err := retry.NewEvaluator(st.counters, policy,
		retry.WithMetrics(m),
		retry.WithLogger(logger.WithComponent(log, "retry")),
	)
	if err != nil {
		return err
	}

	gw, err := gateway.NewClient(cfg.APIURL,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithLogger(logger.WithComponent(log, "gateway")),
		gateway.WithMetrics(m),
		gateway.WithTracer(otel.Tracer("consentflow/gateway")),
	)
	if err != nil {
		return err
	}

	sink, closeSink, err := buildAuditSink(cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeSink()
	queue, inbox := audit.NewQueue(cfg.Audit.QueueSize)
	worker := audit.NewWorker(sink, inbox, logger.WithComponent(log, "audit"))

	orch, err := workflow.New(st.progress, evaluator, gw,
		workflow.WithLogger(logger.WithComponent(log, "workflow")),
		workflow.WithMetrics(m),
		workflow.WithTracer(otel.Tracer("consentflow/workflow")),
		workflow.WithAuditPublisher(audit.NewPublisher(queue, audit.WithLogger(log), audit.WithMetrics(m))),
		workflow.WithRequestTimeout(cfg.RequestTimeout),
		workflow.WithRefreshInterval(cfg.RefreshInterval),
	)
	if err != nil {
		return err
	}

	session := middleware.SessionConfig{
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     true,
	}
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Journey:        httptransport.NewJourneyHandler(orch, log, session),
		Health:         httptransport.NewHealthHandler(st.health),
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		Session:        session,
		RequestTimeout: cfg.RequestTimeout,
	})
	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Runs until the queue is closed so buffered events are not lost.
		return worker.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		log.Info("starting consentflow", "addr", cfg.Addr, "api_url", cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		queue.Close()
		return err
	})
	return g.Wait()
}
