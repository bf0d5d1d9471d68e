package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labequip_backend/internal/email"
	"labequip_backend/internal/equipment/repository"
	"labequip_backend/internal/events"
	"labequip_backend/internal/notification"
	"labequip_backend/internal/reports"
	"labequip_backend/internal/schedule"
	"labequip_backend/internal/schedule/domain"
	"labequip_backend/internal/scheduler"
	"labequip_backend/platform/config"
	"labequip_backend/platform/db"
	"labequip_backend/platform/logger"
	"labequip_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	policies, err := domain.LoadPolicySet(cfg.GetPolicyFile())
	if err != nil {
		log.Error("failed to load schedule policies", "error", err)
		panic("failed to load schedule policies: " + err.Error())
	}

	val := validator.New()

	equipmentRepo := repository.New(pool, cfg)
	dispatcher := notification.New(equipmentRepo, sender, cfg, log)
	dispatcher.RegisterHandlers(eventBus)

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
	}

	// The worker consumes tasks rather than enqueuing them, so no enqueuer
	scheduleModule := schedule.NewModule(pool, policies, dispatcher, nil, eventBus, cfg, log, val)

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic enqueuer", "error", err)
		panic("failed to initialize periodic enqueuer: " + err.Error())
	}
	go func() {
		<-ctx.Done()
		periodic.Shutdown()
	}()
	go func() {
		if err := periodic.Run(); err != nil {
			log.Error("periodic enqueuer stopped", "error", err)
		}
	}()

	worker, err := scheduler.NewWorker(cfg, scheduleModule.Runner(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
