package access

import "strings"

const (
	keyPrefix = "perm"
	keySep    = ":"

	// Fallback tokens for absent optional fields. They keep global-scope
	// and collection-level checks in cache namespaces distinct from any
	// tenant- or instance-scoped check.
	globalScope = "global"
	anyResource = "any"

	// reservedResource namespaces superadmin lookups inside the decision
	// cache so they are invalidated together with the user's other
	// entries. The leading underscore keeps it out of the resource-type
	// namespace callers can use.
	reservedResource = "_superadmin"
)

// DecisionKey uniquely identifies a permission decision in the cache.
// Two requests produce the same key iff they are semantically identical.
type DecisionKey struct {
	UserID       string
	TenantID     string
	ResourceType string
	Action       Action
	ResourceID   string
}

// String renders the composite cache key:
//
//	perm:{user}:{tenant|global}:{resource}:{action}:{id|any}
func (k DecisionKey) String() string {
	tenant := k.TenantID
	if tenant == "" {
		tenant = globalScope
	}
	resource := k.ResourceID
	if resource == "" {
		resource = anyResource
	}
	return strings.Join([]string{keyPrefix, k.UserID, tenant, k.ResourceType, string(k.Action), resource}, keySep)
}

// UserPrefix returns the key prefix shared by every decision cached for the
// given user, used for user-scoped invalidation.
func UserPrefix(userID string) string {
	return keyPrefix + keySep + userID + keySep
}

// SuperAdminKey returns the cache key for a user's superadmin status.
// SuperAdmin status is tenant-independent, so the key always lives in the
// global scope.
func SuperAdminKey(userID string) DecisionKey {
	return DecisionKey{
		UserID:       userID,
		ResourceType: reservedResource,
		Action:       ActionManage,
	}
}
