package access

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lattice-saas/lattice/internal/application/tenant"
	domain "github.com/lattice-saas/lattice/internal/domain/access"
	"github.com/lattice-saas/lattice/internal/interfaces/http/middleware"
	apperrors "github.com/lattice-saas/lattice/internal/shared/errors"
	"github.com/lattice-saas/lattice/internal/shared/logger"
	"github.com/lattice-saas/lattice/internal/shared/utils"
)

// Service is the slice of the permission resolver the handler consumes.
type Service interface {
	Check(ctx context.Context, req domain.CheckRequest) (bool, error)
	InvalidateUser(ctx context.Context, userID string)
	InvalidateAll(ctx context.Context)
}

type Handler struct {
	service  Service
	registry *tenant.Registry
	logger   logger.Interface
}

func NewHandler(service Service, registry *tenant.Registry, log logger.Interface) *Handler {
	return &Handler{
		service:  service,
		registry: registry,
		logger:   log,
	}
}

type checkRequest struct {
	ResourceType string `json:"resource_type" binding:"required"`
	Action       string `json:"action" binding:"required"`
	ResourceID   string `json:"resource_id"`
	// TenantID overrides the session's current tenant when present. An
	// explicit empty string requests a global-scope check.
	TenantID *string `json:"tenant_id"`
}

type checkResponse struct {
	Allowed bool `json:"allowed"`
}

// Check resolves a permission check for the authenticated user.
func (h *Handler) Check(c *gin.Context) {
	var body checkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := domain.ParseAction(body.Action)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tenantID := h.registry.ForSession(c.GetString(middleware.ContextKeySessionID)).CurrentTenantID()
	if body.TenantID != nil {
		tenantID = *body.TenantID
	}

	req := domain.CheckRequest{
		UserID:       c.GetString(middleware.ContextKeyUserID),
		TenantID:     tenantID,
		ResourceType: body.ResourceType,
		Action:       action,
		ResourceID:   body.ResourceID,
	}

	allowed, err := h.service.Check(c.Request.Context(), req)
	if err != nil {
		if !apperrors.IsValidationError(err) {
			h.logger.Errorw("permission check failed", "error", err, "user_id", req.UserID)
		}
		utils.AppErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, checkResponse{Allowed: allowed})
}

// InvalidateCache drops cached decisions: for one user when user_id is
// given, for everyone otherwise. Admin-gated by the router.
func (h *Handler) InvalidateCache(c *gin.Context) {
	if userID := c.Query("user_id"); userID != "" {
		h.service.InvalidateUser(c.Request.Context(), userID)
		utils.SuccessResponse(c, http.StatusOK, "user cache invalidated", nil)
		return
	}
	h.service.InvalidateAll(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "cache cleared", nil)
}
