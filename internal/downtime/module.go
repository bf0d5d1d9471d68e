// Package downtime provides the equipment downtime log module.
package downtime

import (
	"labequip_backend/internal/downtime/handler"
	"labequip_backend/internal/downtime/repository"
	"labequip_backend/internal/downtime/service"
	"labequip_backend/internal/events"
	apphttp "labequip_backend/internal/http"
	"labequip_backend/platform/logger"
	"labequip_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the downtime domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a downtime module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "downtime"
}

// RegisterRoutes mounts the downtime routes under /api/v1/downtime.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/downtime"))
}

var _ apphttp.Module = (*Module)(nil)
