package handler

import (
	"context"

	"labequip_backend/internal/schedule/domain"
	"labequip_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// contextWithDeadline bounds one batch run by the family's wall-clock
// ceiling. The runner checks the context between pages, so hitting the
// deadline aborts cleanly with every already-persisted row intact.
func contextWithDeadline(c *gin.Context, cfg config.ReconcileConfig, family domain.Family) (context.Context, context.CancelFunc) {
	deadline := cfg.GetReconcileDeadline(string(family))
	if deadline <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), deadline)
}
