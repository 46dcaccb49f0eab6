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

	"leadtriage_backend/internal/archive"
	"leadtriage_backend/internal/email"
	"leadtriage_backend/internal/events"
	apphttp "leadtriage_backend/internal/http"
	"leadtriage_backend/internal/http/router"
	"leadtriage_backend/internal/notification"
	"leadtriage_backend/internal/routing"
	"leadtriage_backend/internal/scheduler"
	"leadtriage_backend/internal/session"
	"leadtriage_backend/internal/triage"
	triageservice "leadtriage_backend/internal/triage/service"
	"leadtriage_backend/platform/config"
	"leadtriage_backend/platform/db"
	"leadtriage_backend/platform/logger"
	"leadtriage_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	nurtureScheduler, closeScheduler := initNurtureScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender := initEmailSender(cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Packet archive (MinIO)
	var packets triageservice.PacketStore
	if cfg.IsMinIOEnabled() {
		store, err := archive.NewStore(cfg)
		if err != nil {
			log.Error("failed to initialize archive store", "error", err)
			panic("failed to initialize archive store: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure archive bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure archive bucket exists", "error", err, "bucket", cfg.GetMinioBucketLeadArchives())
			panic("failed to ensure archive bucket exists: " + err.Error())
		}
		packets = store
		log.Info("archive store initialized", "bucket", cfg.GetMinioBucketLeadArchives())
	} else {
		log.Warn("MinIO not configured; lead packet archiving disabled")
	}

	// Assignment usage table: Redis when available so counters survive
	// restarts and span replicas, in-memory otherwise.
	usage, closeUsage := initUsageTable(cfg, log)
	if closeUsage != nil {
		defer closeUsage()
	}
	engine := routing.NewEngine(usage, cfg.GetHighEndBudget())

	// Roster: YAML file when configured, the agents table otherwise.
	var roster routing.RosterSource
	if path := cfg.GetRosterPath(); path != "" {
		roster = routing.NewFileRoster(path)
		log.Info("using file roster", "path", path)
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, nurtureScheduler, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	sessions := session.NewStore()
	triageModule := triage.NewModule(pool, sessions, engine, roster, packets, eventBus, cfg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			triageModule,
		},
	}

	ginEngine := router.New(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initNurtureScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.NurtureScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; nurture follow-ups disabled")
		return nil, nil
	}

	nurtureClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize nurture scheduler client", "error", err)
		return nil, nil
	}

	return nurtureClient, func() {
		_ = nurtureClient.Close()
	}
}

func initEmailSender(cfg *config.Config, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		log.Warn("email delivery disabled")
		return email.NoopSender{}
	}

	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func initUsageTable(cfg config.SchedulerConfig, log *logger.Logger) (routing.UsageTable, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; using in-memory assignment counters")
		return routing.NewMemoryUsageTable(), nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to parse redis url; using in-memory assignment counters", "error", err)
		return routing.NewMemoryUsageTable(), nil
	}
	if opts.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opts.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opts)
	return routing.NewRedisUsageTable(client), func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
