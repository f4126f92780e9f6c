package tenantctx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lattice-saas/lattice/internal/application/tenant"
	"github.com/lattice-saas/lattice/internal/interfaces/http/middleware"
	"github.com/lattice-saas/lattice/internal/shared/logger"
	"github.com/lattice-saas/lattice/internal/shared/utils"
)

type Handler struct {
	registry *tenant.Registry
	logger   logger.Interface
}

func NewHandler(registry *tenant.Registry, log logger.Interface) *Handler {
	return &Handler{
		registry: registry,
		logger:   log,
	}
}

type switchRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
}

type contextResponse struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
}

// Switch moves the session into another tenant after validating the
// user's membership. A rejected or failed switch leaves the session's
// context untouched.
func (h *Handler) Switch(c *gin.Context) {
	var body switchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := c.GetString(middleware.ContextKeyUserID)
	holder := h.registry.ForSession(c.GetString(middleware.ContextKeySessionID))

	if err := holder.SwitchTenant(c.Request.Context(), userID, body.TenantID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, contextResponse{
		UserID:   holder.CurrentUserID(),
		TenantID: holder.CurrentTenantID(),
	})
}

// Current returns the session's tenant context.
func (h *Handler) Current(c *gin.Context) {
	holder := h.registry.ForSession(c.GetString(middleware.ContextKeySessionID))
	utils.OKResponse(c, contextResponse{
		UserID:   holder.CurrentUserID(),
		TenantID: holder.CurrentTenantID(),
	})
}

// Clear resets the session's context and drops the holder, e.g. on logout.
func (h *Handler) Clear(c *gin.Context) {
	sessionID := c.GetString(middleware.ContextKeySessionID)
	h.registry.ForSession(sessionID).Clear(c.Request.Context())
	h.registry.Drop(sessionID)
	utils.SuccessResponse(c, http.StatusOK, "context cleared", nil)
}
