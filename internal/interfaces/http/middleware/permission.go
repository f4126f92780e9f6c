package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lattice-saas/lattice/internal/application/tenant"
	"github.com/lattice-saas/lattice/internal/domain/access"
	apperrors "github.com/lattice-saas/lattice/internal/shared/errors"
	"github.com/lattice-saas/lattice/internal/shared/logger"
	"github.com/lattice-saas/lattice/internal/shared/utils"
)

// PermissionChecker is the slice of the resolver the middleware needs.
type PermissionChecker interface {
	Check(ctx context.Context, req access.CheckRequest) (bool, error)
}

type PermissionMiddleware struct {
	checker  PermissionChecker
	registry *tenant.Registry
	logger   logger.Interface
}

func NewPermissionMiddleware(checker PermissionChecker, registry *tenant.Registry, log logger.Interface) *PermissionMiddleware {
	return &PermissionMiddleware{
		checker:  checker,
		registry: registry,
		logger:   log,
	}
}

// RequirePermission gates a route on a collection-level permission in the
// session's current tenant scope. Infrastructure failures deny the request
// but surface as 503, not 403.
func (m *PermissionMiddleware) RequirePermission(resourceType string, action access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextKeyUserID)
		if userID == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
			c.Abort()
			return
		}

		holder := m.registry.ForSession(c.GetString(ContextKeySessionID))
		req := access.CheckRequest{
			UserID:       userID,
			TenantID:     holder.CurrentTenantID(),
			ResourceType: resourceType,
			Action:       action,
		}

		allowed, err := m.checker.Check(c.Request.Context(), req)
		if err != nil {
			m.logger.Errorw("permission check failed", "error", err, "user_id", userID, "resource_type", resourceType, "action", action)
			if apperrors.IsInfrastructureError(err) {
				utils.ErrorResponse(c, http.StatusServiceUnavailable, "permission check unavailable")
			} else {
				utils.AppErrorResponse(c, err)
			}
			c.Abort()
			return
		}

		if !allowed {
			m.logger.Warnw("permission denied", "user_id", userID, "resource_type", resourceType, "action", action)
			utils.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}
