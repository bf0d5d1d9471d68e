// Package schedule provides the recurring-schedule domain module: the
// reconciliation engine, the batch runner, and the read/complete API.
package schedule

import (
	"labequip_backend/internal/events"
	apphttp "labequip_backend/internal/http"
	"labequip_backend/internal/schedule/domain"
	"labequip_backend/internal/schedule/handler"
	"labequip_backend/internal/schedule/repository"
	"labequip_backend/internal/schedule/service"
	"labequip_backend/platform/config"
	"labequip_backend/platform/logger"
	"labequip_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the schedule domain module.
type Module struct {
	handler *handler.Handler
	runner  *service.Runner
	service *service.Service
}

// NewModule creates a schedule module with all dependencies wired. The
// notifier may be nil when notifications are disabled, and the enqueuer may
// be nil when no task queue is configured.
func NewModule(
	pool *pgxpool.Pool,
	policies *domain.PolicySet,
	notifier service.Notifier,
	enqueuer handler.ReconcileEnqueuer,
	bus events.Bus,
	cfg config.ReconcileConfig,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool)
	reconciler := service.NewReconciler(repo, policies, log)
	runner := service.NewRunner(repo, reconciler, notifier, bus, log, cfg.GetReconcilePageSize())
	svc := service.New(repo, policies, bus, log)
	h := handler.New(svc, runner, enqueuer, cfg, val)

	return &Module{
		handler: h,
		runner:  runner,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "schedule"
}

// Runner exposes the batch runner for non-HTTP triggers (the worker).
func (m *Module) Runner() *service.Runner {
	return m.runner
}

// RegisterRoutes mounts the schedule routes under /api/v1/schedules and
// the reconciliation triggers under /api/v1/reconcile.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/schedules"))
	m.handler.RegisterTriggerRoutes(ctx.Triggers)
}

var _ apphttp.Module = (*Module)(nil)
