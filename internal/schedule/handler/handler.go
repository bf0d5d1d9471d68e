package handler

import (
	"context"
	"net/http"
	"strconv"

	"labequip_backend/internal/schedule/domain"
	"labequip_backend/internal/schedule/service"
	"labequip_backend/internal/schedule/transport"
	"labequip_backend/platform/config"
	"labequip_backend/platform/httpkit"
	"labequip_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidFamily    = "unknown schedule family"
	msgInvalidID        = "invalid schedule id"

	// familyAll triggers every family in sequence from one endpoint.
	familyAll = "all"
)

// ReconcileEnqueuer queues a sweep for out-of-band execution by the worker.
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, family domain.Family) error
}

// Handler handles HTTP requests for schedules and reconciliation triggers.
type Handler struct {
	svc    *service.Service
	runner *service.Runner
	enq    ReconcileEnqueuer
	cfg    config.ReconcileConfig
	val    *validator.Validator
}

// New creates a new schedule handler. The enqueuer may be nil when no task
// queue is configured; async triggers then return 503.
func New(svc *service.Service, runner *service.Runner, enq ReconcileEnqueuer, cfg config.ReconcileConfig, val *validator.Validator) *Handler {
	return &Handler{svc: svc, runner: runner, enq: enq, cfg: cfg, val: val}
}

// RegisterRoutes registers the schedule read/complete routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:family", h.List)
	rg.GET("/:family/:id", h.GetByID)
	rg.GET("/:family/:id/history", h.History)
	rg.POST("/:family/:id/complete", h.Complete)
}

// RegisterTriggerRoutes registers the cron trigger routes, typically behind
// the cron-secret guard.
func (h *Handler) RegisterTriggerRoutes(rg *gin.RouterGroup) {
	rg.GET("/:family", h.Reconcile)
}

func parseFamily(c *gin.Context) (domain.Family, bool) {
	family, err := domain.ParseFamily(c.Param("family"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidFamily, nil)
		return "", false
	}
	return family, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return 0, false
	}
	return id, true
}

// Reconcile handles GET /api/v1/reconcile/:family. The path segment "all"
// runs every family in sequence. Each run gets its family's wall-clock
// deadline; the trigger is idempotent under repeated calls. With ?async=true
// the sweep is queued for the worker instead of running inline.
func (h *Handler) Reconcile(c *gin.Context) {
	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))

	raw := c.Param("family")
	if raw == familyAll {
		if async {
			h.enqueueFamilies(c, domain.Families)
			return
		}
		h.reconcileAll(c)
		return
	}

	family, ok := parseFamily(c)
	if !ok {
		return
	}

	if async {
		h.enqueueFamilies(c, []domain.Family{family})
		return
	}

	resp := h.runFamily(c, family)
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	httpkit.JSON(c, status, resp)
}

func (h *Handler) reconcileAll(c *gin.Context) {
	out := transport.RunAllResponse{Success: true}
	for _, family := range domain.Families {
		resp := h.runFamily(c, family)
		if !resp.Success {
			out.Success = false
		}
		out.Runs = append(out.Runs, resp)
		out.Timestamp = resp.Timestamp
	}

	status := http.StatusOK
	if !out.Success {
		status = http.StatusInternalServerError
	}
	httpkit.JSON(c, status, out)
}

func (h *Handler) enqueueFamilies(c *gin.Context, families []domain.Family) {
	if h.enq == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "async trigger not configured", nil)
		return
	}

	queued := make([]string, 0, len(families))
	for _, family := range families {
		if err := h.enq.EnqueueReconcile(c.Request.Context(), family); err != nil {
			httpkit.Error(c, http.StatusInternalServerError, "failed to enqueue reconciliation", err.Error())
			return
		}
		queued = append(queued, string(family))
	}

	httpkit.JSON(c, http.StatusAccepted, transport.EnqueuedResponse{Success: true, Queued: queued})
}

func (h *Handler) runFamily(c *gin.Context, family domain.Family) transport.RunSummaryResponse {
	ctx, cancel := contextWithDeadline(c, h.cfg, family)
	defer cancel()

	summary := h.runner.Run(ctx, family)

	resp := transport.RunSummaryResponse{
		Success:             summary.Err == nil,
		Family:              string(family),
		Processed:           summary.Processed,
		UpdatedCount:        summary.Updated,
		FailedCount:         summary.Failed,
		NotificationsSent:   summary.NotificationsSent,
		NotificationsFailed: summary.NotificationsFailed,
		Timestamp:           summary.EndTime,
	}
	if summary.Err != nil {
		resp.Error = summary.Err.Error()
	}
	return resp
}

// List handles GET /api/v1/schedules/:family.
func (h *Handler) List(c *gin.Context) {
	family, ok := parseFamily(c)
	if !ok {
		return
	}

	var req transport.ListSchedulesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), family, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetByID handles GET /api/v1/schedules/:family/:id.
func (h *Handler) GetByID(c *gin.Context) {
	family, ok := parseFamily(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	schedule, err := h.svc.Get(c.Request.Context(), family, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewScheduleResponse(*schedule))
}

// History handles GET /api/v1/schedules/:family/:id/history.
func (h *Handler) History(c *gin.Context) {
	family, ok := parseFamily(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	records, err := h.svc.History(c.Request.Context(), family, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, records)
}

// Complete handles POST /api/v1/schedules/:family/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	family, ok := parseFamily(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.CompleteScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	schedule, err := h.svc.Complete(c.Request.Context(), family, id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewScheduleResponse(*schedule))
}
