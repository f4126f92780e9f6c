package access

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/lattice-saas/lattice/internal/shared/errors"
)

// CheckRequest describes a single permission check. TenantID is optional:
// an empty value means the check runs in global scope, which is a cache
// namespace disjoint from every tenant scope. ResourceID is optional: an
// empty value makes this a collection-level check (e.g. view_any).
//
// Identifiers must not contain ':' since it is the cache-key delimiter.
type CheckRequest struct {
	UserID       string `json:"user_id" validate:"required,excludesall=0x3A"`
	TenantID     string `json:"tenant_id,omitempty" validate:"excludesall=0x3A"`
	ResourceType string `json:"resource_type" validate:"required,excludesall=0x3A"`
	Action       Action `json:"action" validate:"required"`
	ResourceID   string `json:"resource_id,omitempty" validate:"excludesall=0x3A"`
}

var validate = validator.New()

// Validate checks structural validity. Malformed requests never reach the
// cache or the backing store.
func (r *CheckRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return apperrors.NewValidationError("invalid permission check request", err.Error())
	}
	if !r.Action.IsValid() {
		return apperrors.NewValidationError("invalid permission check request",
			"unknown action "+string(r.Action))
	}
	if r.ResourceType == reservedResource {
		return apperrors.NewValidationError("invalid permission check request",
			"resource type "+reservedResource+" is reserved")
	}
	return nil
}

// Key returns the cache fingerprint for this request.
func (r *CheckRequest) Key() DecisionKey {
	return DecisionKey{
		UserID:       r.UserID,
		TenantID:     r.TenantID,
		ResourceType: r.ResourceType,
		Action:       r.Action,
		ResourceID:   r.ResourceID,
	}
}
