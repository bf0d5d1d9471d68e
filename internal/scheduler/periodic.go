package scheduler

import (
	"fmt"

	"labequip_backend/internal/schedule/domain"
	"labequip_backend/platform/config"
	"labequip_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic registers one recurring reconciliation task per family on the
// configured cron cadence and feeds them to the worker's queue.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewPeriodic creates the periodic enqueuer.
func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
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
	cronSpec := cfg.GetReconcileCron()
	if cronSpec == "" {
		cronSpec = "0 6 * * *"
	}

	sched := asynq.NewScheduler(opt, nil)
	for _, family := range domain.Families {
		task, err := NewReconcileFamilyTask(ReconcileFamilyPayload{Family: string(family)})
		if err != nil {
			return nil, err
		}
		entryID, err := sched.Register(cronSpec, task, asynq.Queue(queue))
		if err != nil {
			return nil, fmt.Errorf("register %s sweep: %w", family, err)
		}
		log.Info("periodic sweep registered", "family", family, "cron", cronSpec, "entry", entryID)
	}

	return &Periodic{scheduler: sched, log: log}, nil
}

// Run starts the scheduler and blocks until Shutdown.
func (p *Periodic) Run() error {
	return p.scheduler.Run()
}

// Shutdown stops the scheduler.
func (p *Periodic) Shutdown() {
	p.scheduler.Shutdown()
}
