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

	"labequip_backend/internal/downtime"
	"labequip_backend/internal/email"
	"labequip_backend/internal/equipment/repository"
	"labequip_backend/internal/events"
	apphttp "labequip_backend/internal/http"
	"labequip_backend/internal/http/router"
	"labequip_backend/internal/notification"
	"labequip_backend/internal/reports"
	"labequip_backend/internal/schedule"
	"labequip_backend/internal/schedule/domain"
	"labequip_backend/internal/schedule/handler"
	"labequip_backend/internal/scheduler"
	"labequip_backend/migrations"
	"labequip_backend/platform/config"
	"labequip_backend/platform/db"
	"labequip_backend/platform/logger"
	"labequip_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
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
		return db.RunMigrations(ctx, cfg, migrations.FS)
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

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	policies, err := domain.LoadPolicySet(cfg.GetPolicyFile())
	if err != nil {
		log.Error("failed to load schedule policies", "error", err)
		panic("failed to load schedule policies: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module bridges schedule/downtime events to email
	equipmentRepo := repository.New(pool, cfg)
	dispatcher := notification.New(equipmentRepo, sender, cfg, log)
	dispatcher.RegisterHandlers(eventBus)

	// Run-report archiver is optional; it needs object storage
	if cfg.IsMinIOEnabled() {
		archiver, err := reports.NewArchiver(cfg, log)
		if err != nil {
			log.Error("failed to initialize report archiver", "error", err)
			panic("failed to initialize report archiver: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure report bucket", 5, 2*time.Second, func() error {
			return archiver.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure report bucket exists", "error", err)
			panic("failed to ensure report bucket exists: " + err.Error())
		}
		archiver.RegisterHandlers(eventBus)
		log.Info("report archiver initialized", "bucket", cfg.GetMinioBucketRunReports())
	}

	// Async triggers (?async=true) need the task queue; without Redis the
	// endpoint still serves inline runs
	var enqueuer handler.ReconcileEnqueuer
	if cfg.GetRedisURL() != "" {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize task queue client", "error", err)
			panic("failed to initialize task queue client: " + err.Error())
		}
		defer client.Close()
		enqueuer = client
	}

	scheduleModule := schedule.NewModule(pool, policies, dispatcher, enqueuer, eventBus, cfg, log, val)
	downtimeModule := downtime.NewModule(pool, eventBus, log, val)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			scheduleModule,
			downtimeModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
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

	return fmt.Errorf("%s: %w", name, lastErr)
}
