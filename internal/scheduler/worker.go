package scheduler

import (
	"context"
	"fmt"

	"labequip_backend/internal/schedule/domain"
	"labequip_backend/internal/schedule/service"
	"labequip_backend/platform/config"
	"labequip_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// WorkerConfig combines the config views the worker needs.
type WorkerConfig interface {
	config.SchedulerConfig
	config.ReconcileConfig
}

// Worker consumes reconciliation tasks and runs the batch sweeps. Each
// sweep is bounded by its family's wall-clock deadline, same as the HTTP
// trigger path.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner *service.Runner
	cfg    WorkerConfig
	log    *logger.Logger
}

// NewWorker creates an asynq worker bound to the reconciliation runner.
func NewWorker(cfg WorkerConfig, runner *service.Runner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		cfg:    cfg,
		log:    log,
	}

	mux.HandleFunc(TaskReconcileFamily, w.handleReconcileFamily)

	return w, nil
}

func (w *Worker) handleReconcileFamily(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReconcileFamilyPayload(task)
	if err != nil {
		return err
	}

	family, err := domain.ParseFamily(payload.Family)
	if err != nil {
		return err
	}

	runCtx := ctx
	if deadline := w.cfg.GetReconcileDeadline(string(family)); deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	summary := w.runner.Run(runCtx, family)
	if summary.Err != nil {
		return fmt.Errorf("reconcile %s: %w", family, summary.Err)
	}
	return nil
}

// Run serves tasks until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
