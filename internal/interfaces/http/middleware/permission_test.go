package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lattice-saas/lattice/internal/application/tenant"
	"github.com/lattice-saas/lattice/internal/domain/access"
	apperrors "github.com/lattice-saas/lattice/internal/shared/errors"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChecker struct {
	allowed bool
	err     error
	last    *access.CheckRequest
}

func (s *stubChecker) Check(ctx context.Context, req access.CheckRequest) (bool, error) {
	s.last = &req
	return s.allowed, s.err
}

type stubDirectory struct{}

func (stubDirectory) SetTenantContext(ctx context.Context, tenantID string) error {
	return nil
}

func (stubDirectory) HasTenantMembership(ctx context.Context, userID, tenantID string) (bool, error) {
	return true, nil
}

func performRequest(checker *stubChecker, userID string) (*httptest.ResponseRecorder, *bool) {
	registry := tenant.NewRegistry(stubDirectory{}, logger.NewNop())
	m := NewPermissionMiddleware(checker, registry, logger.NewNop())

	reached := false
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(ContextKeyUserID, userID)
			c.Set(ContextKeySessionID, "s1")
		}
	})
	router.GET("/guarded", m.RequirePermission("access_cache", access.ActionManage), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)
	return w, &reached
}

func TestRequirePermissionAllows(t *testing.T) {
	checker := &stubChecker{allowed: true}

	w, reached := performRequest(checker, "u1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *reached)
	assert.Equal(t, "u1", checker.last.UserID)
	assert.Equal(t, "access_cache", checker.last.ResourceType)
	assert.Equal(t, access.ActionManage, checker.last.Action)
}

func TestRequirePermissionDenies(t *testing.T) {
	checker := &stubChecker{allowed: false}

	w, reached := performRequest(checker, "u1")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, *reached)
}

func TestRequirePermissionInfrastructureFailure(t *testing.T) {
	checker := &stubChecker{err: apperrors.NewInfrastructureError("authorization check failed", nil)}

	w, reached := performRequest(checker, "u1")

	// Unavailability is not the same as denial.
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, *reached)
}

func TestRequirePermissionUnauthenticated(t *testing.T) {
	checker := &stubChecker{allowed: true}

	w, reached := performRequest(checker, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *reached)
	assert.Nil(t, checker.last, "no check is issued for anonymous requests")
}
