package models_test

import (
	"testing"

	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/stretchr/testify/require"
)

func TestPermitIsClosedWorld(t *testing.T) {
	setupTestDB(t)
	ctx, owner, workspace := registerTenant(t, "owner@example.com")

	allowed, err := models.Permit(ctx, workspace.ID, models.MemberRoleGroundTeam, models.AccessTypePage, "inventory")
	require.NoError(t, err)
	require.False(t, allowed)

	grant, err := models.GrantAccess(ctx, workspace.ID, owner.ID, &models.NewAccessControl{
		Type:   models.AccessTypePage,
		Target: "inventory",
		Role:   models.MemberRoleGroundTeam,
	})
	require.NoError(t, err)

	allowed, err = models.Permit(ctx, workspace.ID, models.MemberRoleGroundTeam, models.AccessTypePage, "inventory")
	require.NoError(t, err)
	require.True(t, allowed)

	// the grant names one page only
	allowed, err = models.Permit(ctx, workspace.ID, models.MemberRoleGroundTeam, models.AccessTypePage, "accounts")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, models.RevokeAccess(ctx, workspace.ID, grant.ID))
	allowed, err = models.Permit(ctx, workspace.ID, models.MemberRoleGroundTeam, models.AccessTypePage, "inventory")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestGrantAccessIsIdempotent(t *testing.T) {
	setupTestDB(t)
	ctx, owner, workspace := registerTenant(t, "owner@example.com")

	input := &models.NewAccessControl{
		Type:   models.AccessTypeFeature,
		Target: "export",
		Role:   models.MemberRoleFinance,
	}
	first, err := models.GrantAccess(ctx, workspace.ID, owner.ID, input)
	require.NoError(t, err)
	second, err := models.GrantAccess(ctx, workspace.ID, owner.ID, input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	rows, err := models.ListAccessControls(ctx, workspace.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestIsWorkspaceAdminOp(t *testing.T) {
	require.True(t, models.IsWorkspaceAdminOp(models.MemberRoleOwner, "invite-member"))
	require.True(t, models.IsWorkspaceAdminOp(models.MemberRoleOwner, "change-plan"))
	require.False(t, models.IsWorkspaceAdminOp(models.MemberRoleOwner, "inventory"))
	require.False(t, models.IsWorkspaceAdminOp(models.MemberRoleFinance, "invite-member"))
}
