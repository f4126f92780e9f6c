package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/lattice-saas/lattice/internal/domain/access"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

const (
	// superAdminRole grants the global bypass. It lives in the global
	// domain: superadmin status is tenant-independent.
	superAdminRole = "role:superadmin"

	// globalDomain is the casbin domain used for checks without a tenant.
	globalDomain = "global"
)

// CasbinAuthorizer is the embedded backing oracle for single-binary
// deployments without a database-side RLS layer. Policies live in the
// database through the gorm adapter; enforcement is local, so
// SetTenantContext has nothing to propagate.
type CasbinAuthorizer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

var _ access.Authorizer = (*CasbinAuthorizer)(nil)

func NewCasbinAuthorizer(db *gorm.DB, modelPath string, log logger.Interface) (*CasbinAuthorizer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(modelPath, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	return &CasbinAuthorizer{
		enforcer: enforcer,
		logger:   log.Named("authz-casbin"),
	}, nil
}

func (a *CasbinAuthorizer) CheckPermission(ctx context.Context, userID, resourceType string, action access.Action, tenantID string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	allowed, err := a.enforcer.Enforce(userID, domain(tenantID), resourceType, action.String())
	if err != nil {
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return allowed, nil
}

func (a *CasbinAuthorizer) CheckResourcePermission(ctx context.Context, userID, resourceType string, action access.Action, resourceID, tenantID string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	// Instance-level objects are resourceType/resourceID; the model's
	// keyMatch lets a type-level policy (documents/*) cover instances.
	obj := resourceType + "/" + resourceID
	allowed, err := a.enforcer.Enforce(userID, domain(tenantID), obj, action.String())
	if err != nil {
		return false, fmt.Errorf("resource permission check failed: %w", err)
	}
	return allowed, nil
}

func (a *CasbinAuthorizer) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	isSuperAdmin, err := a.enforcer.HasRoleForUser(userID, superAdminRole, globalDomain)
	if err != nil {
		return false, fmt.Errorf("superadmin lookup failed: %w", err)
	}
	return isSuperAdmin, nil
}

// SetTenantContext is a no-op: enforcement is in-process and every check
// carries its tenant explicitly as the casbin domain.
func (a *CasbinAuthorizer) SetTenantContext(ctx context.Context, tenantID string) error {
	return nil
}

func (a *CasbinAuthorizer) HasTenantMembership(ctx context.Context, userID, tenantID string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	roles, err := a.enforcer.GetRolesForUser(userID, domain(tenantID))
	if err != nil {
		return false, fmt.Errorf("membership lookup failed: %w", err)
	}
	return len(roles) > 0, nil
}

// AddGrant attaches a (resource, action) policy to a role inside a tenant.
func (a *CasbinAuthorizer) AddGrant(role, tenantID, resource string, action access.Action) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.enforcer.AddPolicy(role, domain(tenantID), resource, action.String()); err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return a.enforcer.SavePolicy()
}

// RemoveGrant detaches a (resource, action) policy from a role.
func (a *CasbinAuthorizer) RemoveGrant(role, tenantID, resource string, action access.Action) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.enforcer.RemovePolicy(role, domain(tenantID), resource, action.String()); err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return a.enforcer.SavePolicy()
}

// AssignRole makes the user a member of the role inside a tenant. Role
// membership doubles as tenant membership.
func (a *CasbinAuthorizer) AssignRole(userID, role, tenantID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.enforcer.AddRoleForUser(userID, role, domain(tenantID)); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return a.enforcer.SavePolicy()
}

// RevokeRole removes the user from the role inside a tenant.
func (a *CasbinAuthorizer) RevokeRole(userID, role, tenantID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.enforcer.DeleteRoleForUser(userID, role, domain(tenantID)); err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return a.enforcer.SavePolicy()
}

// Reload re-reads policies from the adapter, e.g. after another process
// changed them.
func (a *CasbinAuthorizer) Reload() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}
	a.logger.Info("policy reloaded")
	return nil
}

func domain(tenantID string) string {
	if tenantID == "" {
		return globalDomain
	}
	return "tenant:" + tenantID
}
