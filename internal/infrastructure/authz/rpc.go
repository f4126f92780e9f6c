package authz

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/lattice-saas/lattice/internal/domain/access"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

// RPCAuthorizer evaluates permissions through SQL functions installed by
// the migrations. The functions run under row-level security keyed off the
// app.tenant_id session setting, so SetTenantContext must be called before
// a predicate is evaluated for a tenant-scoped check.
type RPCAuthorizer struct {
	db     *gorm.DB
	logger logger.Interface
}

var _ access.Authorizer = (*RPCAuthorizer)(nil)

func NewRPCAuthorizer(db *gorm.DB, log logger.Interface) *RPCAuthorizer {
	return &RPCAuthorizer{
		db:     db,
		logger: log.Named("authz-rpc"),
	}
}

func (a *RPCAuthorizer) CheckPermission(ctx context.Context, userID, resourceType string, action access.Action, tenantID string) (bool, error) {
	var allowed bool
	err := a.db.WithContext(ctx).
		Raw("SELECT check_user_permission(?, ?, ?, ?)", userID, resourceType, action.String(), nullable(tenantID)).
		Scan(&allowed).Error
	if err != nil {
		return false, fmt.Errorf("check_user_permission: %w", err)
	}
	return allowed, nil
}

func (a *RPCAuthorizer) CheckResourcePermission(ctx context.Context, userID, resourceType string, action access.Action, resourceID, tenantID string) (bool, error) {
	var allowed bool
	err := a.db.WithContext(ctx).
		Raw("SELECT check_resource_specific_permission(?, ?, ?, ?, ?)", userID, resourceType, action.String(), resourceID, nullable(tenantID)).
		Scan(&allowed).Error
	if err != nil {
		return false, fmt.Errorf("check_resource_specific_permission: %w", err)
	}
	return allowed, nil
}

func (a *RPCAuthorizer) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	var isSuperAdmin bool
	err := a.db.WithContext(ctx).
		Raw("SELECT is_super_admin(?)", userID).
		Scan(&isSuperAdmin).Error
	if err != nil {
		return false, fmt.Errorf("is_super_admin: %w", err)
	}
	return isSuperAdmin, nil
}

// SetTenantContext sets the app.tenant_id session variable the RLS
// policies read. An empty tenantID resets the session to global scope.
func (a *RPCAuthorizer) SetTenantContext(ctx context.Context, tenantID string) error {
	err := a.db.WithContext(ctx).
		Exec("SELECT set_tenant_context(?)", nullable(tenantID)).Error
	if err != nil {
		return fmt.Errorf("set_tenant_context: %w", err)
	}
	return nil
}

func (a *RPCAuthorizer) HasTenantMembership(ctx context.Context, userID, tenantID string) (bool, error) {
	var member bool
	err := a.db.WithContext(ctx).
		Raw("SELECT has_tenant_membership(?, ?)", userID, tenantID).
		Scan(&member).Error
	if err != nil {
		return false, fmt.Errorf("has_tenant_membership: %w", err)
	}
	return member, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
