package access

import (
	"context"
	"time"

	"github.com/lattice-saas/lattice/internal/domain/access"
	apperrors "github.com/lattice-saas/lattice/internal/shared/errors"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

const (
	defaultTTL           = 5 * time.Minute
	defaultSuperAdminTTL = time.Minute
	defaultCheckTimeout  = 3 * time.Second
)

// Options tunes the resolver. Zero values fall back to defaults.
type Options struct {
	// TTL is the lifetime of a cached permission decision.
	TTL time.Duration
	// SuperAdminTTL is the lifetime of a cached superadmin lookup. Kept
	// shorter than TTL so a revoked superadmin loses the bypass quickly.
	SuperAdminTTL time.Duration
	// CheckTimeout bounds each backing-store call.
	CheckTimeout time.Duration
}

// Service resolves permission checks against a backing authorization
// oracle, caching outcomes. Denial is a valid result, not an error; an
// error is only returned for malformed requests or backing-store failures,
// and a failed check is always reported as denied (fail closed).
type Service struct {
	cache    access.DecisionCache
	oracle   access.Authorizer
	recorder access.Recorder
	logger   logger.Interface
	opts     Options
}

func NewService(
	cache access.DecisionCache,
	oracle access.Authorizer,
	recorder access.Recorder,
	log logger.Interface,
	opts Options,
) *Service {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.SuperAdminTTL <= 0 {
		opts.SuperAdminTTL = defaultSuperAdminTTL
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = defaultCheckTimeout
	}
	return &Service{
		cache:    cache,
		oracle:   oracle,
		recorder: recorder,
		logger:   log.Named("access"),
		opts:     opts,
	}
}

// Check resolves a single permission request. Outcomes are cached under a
// fingerprint that separates tenant from global scope and instance-level
// from collection-level checks. Backing-store failures are never cached,
// so the next call retries instead of staying denied for a full TTL.
func (s *Service) Check(ctx context.Context, req access.CheckRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}

	key := req.Key()
	if allowed, ok := s.cache.Get(ctx, key); ok {
		s.emit(req, allowed, access.SourceCache, nil)
		return allowed, nil
	}

	isSuperAdmin, err := s.checkSuperAdmin(ctx, req.UserID)
	if err != nil {
		s.emit(req, false, access.SourceSuperAdmin, err)
		return false, err
	}
	if isSuperAdmin {
		s.cache.Set(ctx, key, true, s.opts.TTL)
		s.emit(req, true, access.SourceSuperAdmin, nil)
		return true, nil
	}

	allowed, err := s.checkOracle(ctx, req)
	if err != nil {
		s.logger.Errorw("authorization check failed",
			"error", err,
			"user_id", req.UserID,
			"tenant_id", req.TenantID,
			"resource_type", req.ResourceType,
			"action", req.Action,
		)
		s.emit(req, false, access.SourceOracle, err)
		return false, err
	}

	s.cache.Set(ctx, key, allowed, s.opts.TTL)
	s.emit(req, allowed, access.SourceOracle, nil)
	return allowed, nil
}

// checkSuperAdmin resolves superadmin status through the decision cache.
// Status is tenant-independent, so one lookup covers every tenant.
func (s *Service) checkSuperAdmin(ctx context.Context, userID string) (bool, error) {
	key := access.SuperAdminKey(userID)
	if isSuperAdmin, ok := s.cache.Get(ctx, key); ok {
		return isSuperAdmin, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CheckTimeout)
	defer cancel()

	isSuperAdmin, err := s.oracle.IsSuperAdmin(callCtx, userID)
	if err != nil {
		return false, apperrors.NewInfrastructureError("superadmin lookup failed", err)
	}

	s.cache.Set(ctx, key, isSuperAdmin, s.opts.SuperAdminTTL)
	return isSuperAdmin, nil
}

// checkOracle runs the backing authorization check under a bounded timeout.
// Tenant context is established on the backing store before the predicate
// runs, since its row-level security depends on it.
func (s *Service) checkOracle(ctx context.Context, req access.CheckRequest) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.CheckTimeout)
	defer cancel()

	if req.TenantID != "" {
		if err := s.oracle.SetTenantContext(callCtx, req.TenantID); err != nil {
			return false, apperrors.NewInfrastructureError("failed to establish tenant context", err)
		}
	}

	var allowed bool
	var err error
	if req.ResourceID != "" {
		allowed, err = s.oracle.CheckResourcePermission(callCtx, req.UserID, req.ResourceType, req.Action, req.ResourceID, req.TenantID)
	} else {
		allowed, err = s.oracle.CheckPermission(callCtx, req.UserID, req.ResourceType, req.Action, req.TenantID)
	}
	if err != nil {
		return false, apperrors.NewInfrastructureError("authorization check failed", err)
	}
	return allowed, nil
}

// InvalidateUser drops every cached decision for the user, including the
// superadmin lookup. Called after role or grant changes.
func (s *Service) InvalidateUser(ctx context.Context, userID string) {
	s.cache.InvalidateUser(ctx, userID)
	s.logger.Infow("user decision cache invalidated", "user_id", userID)
}

// InvalidateAll drops the whole decision cache. Called after global policy
// or schema changes.
func (s *Service) InvalidateAll(ctx context.Context) {
	s.cache.Clear(ctx)
	s.logger.Info("decision cache cleared")
}

// emit hands the outcome to the audit recorder. Recording is best-effort
// and never blocks or fails the check.
func (s *Service) emit(req access.CheckRequest, allowed bool, source access.DecisionSource, checkErr error) {
	if s.recorder == nil {
		return
	}
	entry := access.Entry{
		UserID:       req.UserID,
		TenantID:     req.TenantID,
		ResourceType: req.ResourceType,
		Action:       req.Action,
		ResourceID:   req.ResourceID,
		Allowed:      allowed,
		Source:       source,
		CheckedAt:    time.Now().UTC(),
	}
	if checkErr != nil {
		entry.Metadata = map[string]string{"error": checkErr.Error()}
	}
	s.recorder.Record(entry)
}
