package access

import "context"

// Authorizer is the backing authorization check: a database-side RLS/RPC
// layer or an embedded policy engine. The resolver treats it as an opaque,
// potentially slow, potentially failing oracle; it never mirrors the grant
// graph, only caches outcomes.
type Authorizer interface {
	// CheckPermission evaluates a collection-level grant. An empty
	// tenantID means global scope.
	CheckPermission(ctx context.Context, userID, resourceType string, action Action, tenantID string) (bool, error)

	// CheckResourcePermission evaluates an instance-level grant.
	CheckResourcePermission(ctx context.Context, userID, resourceType string, action Action, resourceID, tenantID string) (bool, error)

	// IsSuperAdmin reports whether the user bypasses all tenant and
	// resource checks. Status is tenant-independent.
	IsSuperAdmin(ctx context.Context, userID string) (bool, error)

	// SetTenantContext establishes the tenant on the backing store's
	// session before row-level security predicates are evaluated.
	SetTenantContext(ctx context.Context, tenantID string) error

	// HasTenantMembership reports whether the user may operate inside the
	// tenant at all. Used to validate tenant switches before committing.
	HasTenantMembership(ctx context.Context, userID, tenantID string) (bool, error)
}
