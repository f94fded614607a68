package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/internal/testutil"
)

type brokenStore struct{ services.MembershipStore }

func (brokenStore) GetOwner(context.Context, uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, errors.New("connection refused")
}

func TestGuard_Authorize(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemberships()
	guard := access.NewGuard(store)

	owner := uuid.New()
	manager := uuid.New()
	viewer := uuid.New()
	stranger := uuid.New()
	project := store.AddProject(owner)
	store.SetRole(manager, project, "MANAGER")
	store.SetRole(viewer, project, "viewer")

	t.Run("owner bypasses membership", func(t *testing.T) {
		d, err := guard.Authorize(ctx, owner, project, access.RoleOwner)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, access.RoleOwner, d.Held)
	})

	t.Run("manager can delete", func(t *testing.T) {
		d, err := guard.Authorize(ctx, manager, project, access.RoleManager)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("viewer cannot write", func(t *testing.T) {
		d, err := guard.Authorize(ctx, viewer, project, access.RoleMember)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, access.InsufficientRole, d.Reason)
		assert.Equal(t, access.RoleViewer, d.Held)
	})

	t.Run("stranger is not a member", func(t *testing.T) {
		d, err := guard.Authorize(ctx, stranger, project, access.RoleViewer)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, access.NotAMember, d.Reason)
	})

	t.Run("unknown project", func(t *testing.T) {
		d, err := guard.Authorize(ctx, owner, uuid.New(), access.RoleViewer)
		require.NoError(t, err)
		assert.Equal(t, access.NotAMember, d.Reason)
	})
}

func TestGuard_Require(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemberships()
	guard := access.NewGuard(store)

	member := uuid.New()
	project := store.AddProject(uuid.New())
	store.SetRole(member, project, "MEMBER")

	require.NoError(t, guard.Require(ctx, member, project, access.RoleMember))

	err := guard.Require(ctx, member, project, access.RoleManager)
	require.Error(t, err)
	assert.ErrorIs(t, err, access.ErrForbidden)

	var denial *access.Denial
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, access.InsufficientRole, denial.Reason)
	assert.Equal(t, access.RoleManager, denial.Required)
}

func TestGuard_StoreFailureIsNotDenial(t *testing.T) {
	guard := access.NewGuard(brokenStore{})

	err := guard.Require(context.Background(), uuid.New(), uuid.New(), access.RoleViewer)
	require.Error(t, err)
	assert.NotErrorIs(t, err, access.ErrForbidden)
}
