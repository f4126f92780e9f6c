package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lattice-saas/lattice/internal/shared/errors"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

type fakeDirectory struct {
	members        map[string]map[string]bool
	membershipErr  error
	propagationErr error
	propagated     []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{members: make(map[string]map[string]bool)}
}

func (d *fakeDirectory) addMember(userID, tenantID string) {
	if d.members[userID] == nil {
		d.members[userID] = make(map[string]bool)
	}
	d.members[userID][tenantID] = true
}

func (d *fakeDirectory) SetTenantContext(ctx context.Context, tenantID string) error {
	if d.propagationErr != nil {
		return d.propagationErr
	}
	d.propagated = append(d.propagated, tenantID)
	return nil
}

func (d *fakeDirectory) HasTenantMembership(ctx context.Context, userID, tenantID string) (bool, error) {
	if d.membershipErr != nil {
		return false, d.membershipErr
	}
	return d.members[userID][tenantID], nil
}

func TestSwitchTenantCommitsBothFields(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.addMember("u1", "t1")
	holder := NewHolder(dir, logger.NewNop())

	require.NoError(t, holder.SwitchTenant(ctx, "u1", "t1"))
	assert.Equal(t, "t1", holder.CurrentTenantID())
	assert.Equal(t, "u1", holder.CurrentUserID())
	assert.Equal(t, []string{"t1"}, dir.propagated)
}

func TestSwitchTenantRejectedWithoutMembership(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.addMember("u1", "t1")
	holder := NewHolder(dir, logger.NewNop())
	require.NoError(t, holder.SwitchTenant(ctx, "u1", "t1"))

	err := holder.SwitchTenant(ctx, "u1", "t2")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbiddenError(err))

	// The previous context is untouched.
	assert.Equal(t, "t1", holder.CurrentTenantID())
	assert.Equal(t, "u1", holder.CurrentUserID())
	assert.Equal(t, []string{"t1"}, dir.propagated, "no propagation for a rejected switch")
}

func TestSwitchTenantMembershipLookupFailure(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.addMember("u1", "t1")
	holder := NewHolder(dir, logger.NewNop())
	require.NoError(t, holder.SwitchTenant(ctx, "u1", "t1"))

	dir.membershipErr = errors.New("connection refused")
	dir.addMember("u1", "t2")

	err := holder.SwitchTenant(ctx, "u1", "t2")
	require.Error(t, err)
	assert.True(t, apperrors.IsInfrastructureError(err))
	assert.Equal(t, "t1", holder.CurrentTenantID())
}

func TestSetTenantContextNotCommittedOnPropagationFailure(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	holder := NewHolder(dir, logger.NewNop())
	require.NoError(t, holder.SetTenantContext(ctx, "t1"))

	dir.propagationErr = errors.New("connection refused")

	err := holder.SetTenantContext(ctx, "t2")
	require.Error(t, err)
	assert.True(t, apperrors.IsInfrastructureError(err))

	// The holder must stay consistent with what the backing store
	// believes.
	assert.Equal(t, "t1", holder.CurrentTenantID())
}

func TestSwitchTenantNotCommittedOnPropagationFailure(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.addMember("u1", "t1")
	dir.addMember("u2", "t2")
	holder := NewHolder(dir, logger.NewNop())
	require.NoError(t, holder.SwitchTenant(ctx, "u1", "t1"))

	dir.propagationErr = errors.New("connection refused")

	err := holder.SwitchTenant(ctx, "u2", "t2")
	require.Error(t, err)

	// Neither field moved: the switch is all-or-nothing.
	assert.Equal(t, "t1", holder.CurrentTenantID())
	assert.Equal(t, "u1", holder.CurrentUserID())
}

func TestClearResetsContext(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.addMember("u1", "t1")
	holder := NewHolder(dir, logger.NewNop())
	require.NoError(t, holder.SwitchTenant(ctx, "u1", "t1"))

	holder.Clear(ctx)
	assert.Empty(t, holder.CurrentTenantID())
	assert.Empty(t, holder.CurrentUserID())

	// Clear succeeds locally even when the backing reset fails.
	require.NoError(t, holder.SwitchTenant(ctx, "u1", "t1"))
	dir.propagationErr = errors.New("connection refused")
	holder.Clear(ctx)
	assert.Empty(t, holder.CurrentTenantID())
	assert.Empty(t, holder.CurrentUserID())
}

func TestSetUserContextIndependentOfTenant(t *testing.T) {
	dir := newFakeDirectory()
	holder := NewHolder(dir, logger.NewNop())

	holder.SetUserContext("u1")
	assert.Equal(t, "u1", holder.CurrentUserID())
	assert.Empty(t, holder.CurrentTenantID())
}

func TestRegistryScopesHoldersPerSession(t *testing.T) {
	dir := newFakeDirectory()
	registry := NewRegistry(dir, logger.NewNop())

	a := registry.ForSession("s1")
	b := registry.ForSession("s1")
	c := registry.ForSession("s2")

	assert.Same(t, a, b, "one holder per session")
	assert.NotSame(t, a, c, "sessions are isolated")

	a.SetUserContext("u1")
	assert.Empty(t, c.CurrentUserID())

	registry.Drop("s1")
	assert.NotSame(t, a, registry.ForSession("s1"), "dropped session gets a fresh holder")
}
