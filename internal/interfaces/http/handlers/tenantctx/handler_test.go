package tenantctx

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-saas/lattice/internal/application/tenant"
	"github.com/lattice-saas/lattice/internal/interfaces/http/handlers/testutil"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

type stubDirectory struct {
	members map[string]bool
}

func (d *stubDirectory) SetTenantContext(ctx context.Context, tenantID string) error {
	return nil
}

func (d *stubDirectory) HasTenantMembership(ctx context.Context, userID, tenantID string) (bool, error) {
	return d.members[userID+"/"+tenantID], nil
}

func newTestHandler(members map[string]bool) (*Handler, *tenant.Registry) {
	registry := tenant.NewRegistry(&stubDirectory{members: members}, logger.NewNop())
	return NewHandler(registry, logger.NewNop()), registry
}

func TestHandlerSwitch(t *testing.T) {
	handler, registry := newTestHandler(map[string]bool{"u1/t1": true})

	c, w := testutil.NewTestContext(http.MethodPost, "/tenant/switch", map[string]string{
		"tenant_id": "t1",
	})
	testutil.SetAuthContext(c, "u1", "s1")

	handler.Switch(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data contextResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "u1", data.UserID)
	assert.Equal(t, "t1", data.TenantID)

	assert.Equal(t, "t1", registry.ForSession("s1").CurrentTenantID())
}

func TestHandlerSwitchRejected(t *testing.T) {
	handler, registry := newTestHandler(map[string]bool{"u1/t1": true})
	require.NoError(t, registry.ForSession("s1").SwitchTenant(context.Background(), "u1", "t1"))

	c, w := testutil.NewTestContext(http.MethodPost, "/tenant/switch", map[string]string{
		"tenant_id": "t2",
	})
	testutil.SetAuthContext(c, "u1", "s1")

	handler.Switch(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "t1", registry.ForSession("s1").CurrentTenantID(), "a rejected switch leaves the session untouched")
}

func TestHandlerSwitchMissingBody(t *testing.T) {
	handler, _ := newTestHandler(nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/tenant/switch", map[string]string{})
	testutil.SetAuthContext(c, "u1", "s1")

	handler.Switch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerCurrent(t *testing.T) {
	handler, registry := newTestHandler(map[string]bool{"u1/t1": true})
	require.NoError(t, registry.ForSession("s1").SwitchTenant(context.Background(), "u1", "t1"))

	c, w := testutil.NewTestContext(http.MethodGet, "/tenant/context", nil)
	testutil.SetAuthContext(c, "u1", "s1")

	handler.Current(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data contextResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "t1", data.TenantID)
}

func TestHandlerClear(t *testing.T) {
	handler, registry := newTestHandler(map[string]bool{"u1/t1": true})
	require.NoError(t, registry.ForSession("s1").SwitchTenant(context.Background(), "u1", "t1"))

	c, w := testutil.NewTestContext(http.MethodPost, "/tenant/clear", nil)
	testutil.SetAuthContext(c, "u1", "s1")

	handler.Clear(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, registry.ForSession("s1").CurrentTenantID())
}
