package tenant

import (
	"context"
	"sync"

	apperrors "github.com/lattice-saas/lattice/internal/shared/errors"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

// Directory is the slice of the backing store the holder needs: tenant
// context propagation and membership lookups. access.Authorizer satisfies
// it.
type Directory interface {
	SetTenantContext(ctx context.Context, tenantID string) error
	HasTenantMembership(ctx context.Context, userID, tenantID string) (bool, error)
}

// Holder tracks the current tenant and user of one logical session. It is
// an explicitly constructed instance, not a process singleton, so tests
// and multi-session processes each own their scope.
//
// The write lock is held across backing-store propagation: a switch
// completes (or fails) before any read issued after it observes the new
// tenant, and a failed propagation never leaves the holder ahead of what
// the backing store believes.
type Holder struct {
	mu        sync.RWMutex
	tenantID  string
	userID    string
	directory Directory
	logger    logger.Interface
}

func NewHolder(directory Directory, log logger.Interface) *Holder {
	return &Holder{
		directory: directory,
		logger:    log.Named("tenant-context"),
	}
}

// SetTenantContext propagates the tenant to the backing store's session and
// commits it locally only on success. It performs no membership validation;
// callers that need validation use SwitchTenant.
func (h *Holder) SetTenantContext(ctx context.Context, tenantID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.directory.SetTenantContext(ctx, tenantID); err != nil {
		h.logger.Errorw("tenant context propagation failed", "error", err, "tenant_id", tenantID)
		return apperrors.NewInfrastructureError("failed to propagate tenant context", err)
	}
	h.tenantID = tenantID
	return nil
}

// SetUserContext records the current user. Independent of tenant.
func (h *Holder) SetUserContext(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.userID = userID
}

// SwitchTenant verifies the user's membership in the target tenant,
// propagates the new tenant to the backing store, and commits both fields
// atomically. On any failure the previous context is left untouched.
func (h *Holder) SwitchTenant(ctx context.Context, userID, tenantID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	member, err := h.directory.HasTenantMembership(ctx, userID, tenantID)
	if err != nil {
		h.logger.Errorw("tenant membership lookup failed", "error", err, "user_id", userID, "tenant_id", tenantID)
		return apperrors.NewInfrastructureError("failed to verify tenant membership", err)
	}
	if !member {
		h.logger.Warnw("tenant switch rejected", "user_id", userID, "tenant_id", tenantID)
		return apperrors.NewForbiddenError("user is not a member of the target tenant")
	}

	if err := h.directory.SetTenantContext(ctx, tenantID); err != nil {
		h.logger.Errorw("tenant context propagation failed", "error", err, "tenant_id", tenantID)
		return apperrors.NewInfrastructureError("failed to propagate tenant context", err)
	}

	h.tenantID = tenantID
	h.userID = userID
	return nil
}

// Clear resets the session context on logout. The backing store reset is
// best-effort: logout must always succeed locally.
func (h *Holder) Clear(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.directory.SetTenantContext(ctx, ""); err != nil {
		h.logger.Warnw("failed to reset backing tenant context", "error", err)
	}
	h.tenantID = ""
	h.userID = ""
}

func (h *Holder) CurrentTenantID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tenantID
}

func (h *Holder) CurrentUserID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userID
}
