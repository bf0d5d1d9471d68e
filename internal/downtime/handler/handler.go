package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"labequip_backend/internal/downtime/service"
	"labequip_backend/internal/downtime/transport"
	"labequip_backend/platform/httpkit"
	"labequip_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid downtime id"
	msgInvalidEquipID   = "invalid equipment id"
)

// Handler handles HTTP requests for the downtime log.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new downtime handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the downtime routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Open)
	rg.POST("/:id/close", h.Close)
	rg.GET("/equipment/:equipmentId", h.ListByEquipment)
}

// Open handles POST /api/v1/downtime.
func (h *Handler) Open(c *gin.Context) {
	var req transport.OpenDowntimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var startedAt time.Time
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	}

	saved, err := h.svc.Open(c.Request.Context(), req.EquipmentID, req.Reason, startedAt)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.NewDowntimeResponse(*saved))
}

// Close handles POST /api/v1/downtime/:id/close.
func (h *Handler) Close(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	// The body is optional; an absent endedAt means the period ends now.
	var req transport.CloseDowntimeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	var endedAt time.Time
	if req.EndedAt != nil {
		endedAt = *req.EndedAt
	}

	if err := h.svc.Close(c.Request.Context(), id, endedAt); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"closed": true})
}

// ListByEquipment handles GET /api/v1/downtime/equipment/:equipmentId.
func (h *Handler) ListByEquipment(c *gin.Context) {
	equipmentID, err := strconv.ParseInt(c.Param("equipmentId"), 10, 64)
	if err != nil || equipmentID < 1 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidEquipID, nil)
		return
	}

	items, err := h.svc.List(c.Request.Context(), equipmentID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewDowntimeListResponse(items))
}
