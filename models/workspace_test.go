package models_test

import (
	"context"
	"testing"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRegisterProvisionsTenantDefaults(t *testing.T) {
	setupTestDB(t)
	ctx, profile, workspace := registerTenant(t, "owner@example.com")

	require.Equal(t, profile.ID, workspace.OwnerId)
	require.Equal(t, models.SubscriptionStatusTrial, workspace.SubscriptionStatus)
	require.NotNil(t, workspace.TrialEndsAt)
	require.Equal(t, 1, workspace.CurrentMembersCount)

	statuses, err := models.ListStatuses(ctx, workspace.ID)
	require.NoError(t, err)
	require.Len(t, statuses, len(models.DefaultStatusNames))

	departments, err := models.ListDepartments(ctx, workspace.ID)
	require.NoError(t, err)
	require.Len(t, departments, len(models.DefaultDepartmentNames))

	workflows, err := models.ListWorkflows(ctx, workspace.ID)
	require.NoError(t, err)
	require.Len(t, workflows, 4)
	for _, wf := range workflows {
		require.GreaterOrEqual(t, len(wf.StatusSequence), 3)
	}

	tags, err := models.ListAccountTags(ctx, workspace.ID)
	require.NoError(t, err)
	require.Len(t, tags, 5)
	for _, tag := range tags {
		require.True(t, *tag.IsSystemTag)
	}

	member, err := models.GetActiveMember(ctx, workspace.ID, profile.ID)
	require.NoError(t, err)
	require.Equal(t, models.MemberRoleOwner, member.Role)
}

func TestCreateWorkspaceRejectsTakenSlug(t *testing.T) {
	setupTestDB(t)
	ctx, profile, workspace := registerTenant(t, "owner@example.com")

	_, err := models.CreateWorkspace(ctx, profile.ID, &models.NewWorkspace{
		Name: "Second",
		Slug: workspace.Slug,
	})
	require.ErrorIs(t, err, models.ErrSlugTaken)
}

func TestRegisterRollsBackProfileOnSlugConflict(t *testing.T) {
	setupTestDB(t)
	ctx, _, workspace := registerTenant(t, "owner@example.com")

	_, _, err := models.Register(ctx, &models.RegisterInput{
		Name:          "Second Owner",
		Email:         "second@example.com",
		Password:      "secret-pass-2",
		WorkspaceName: "Another Name",
		WorkspaceSlug: workspace.Slug,
	})
	require.ErrorIs(t, err, models.ErrSlugTaken)

	// the profile row rolled back with the workspace, so the same
	// email can register again
	_, err = models.GetProfileByEmail(ctx, "second@example.com")
	require.Error(t, err)

	_, retried, err := models.Register(ctx, &models.RegisterInput{
		Name:          "Second Owner",
		Email:         "second@example.com",
		Password:      "secret-pass-2",
		WorkspaceName: "Another Name",
	})
	require.NoError(t, err)
	require.NotEqual(t, workspace.Slug, retried.Slug)
}

func TestPlanLimitStopsFactoryCreation(t *testing.T) {
	setupTestDB(t)
	ctx, profile, workspace := registerTenant(t, "owner@example.com")

	// the starter plan allows two factories
	_, err := models.CreateFactory(ctx, workspace.ID, profile.ID, &models.NewFactory{Name: "Plant A"})
	require.NoError(t, err)
	_, err = models.CreateFactory(ctx, workspace.ID, profile.ID, &models.NewFactory{Name: "Plant B"})
	require.NoError(t, err)

	_, err = models.CreateFactory(ctx, workspace.ID, profile.ID, &models.NewFactory{Name: "Plant C"})
	require.ErrorIs(t, err, models.ErrPlanLimitReached)

	reloaded, err := models.GetWorkspace(ctx, workspace.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.CurrentFactoriesCount)
}

func TestAdjustUsageFloorsAtZero(t *testing.T) {
	setupTestDB(t)
	ctx, _, workspace := registerTenant(t, "owner@example.com")

	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		return models.AdjustUsage(tx, workspace.ID, models.CounterFactories, -5)
	})
	require.NoError(t, err)

	reloaded, err := models.GetWorkspace(ctx, workspace.ID)
	require.NoError(t, err)
	require.Equal(t, 0, reloaded.CurrentFactoriesCount)
}

func TestChangeSubscriptionPlanRaisesCeiling(t *testing.T) {
	setupTestDB(t)
	ctx, profile, workspace := registerTenant(t, "owner@example.com")

	bigger := models.SubscriptionPlan{
		Name:              "Growth",
		MaxMembers:        50,
		MaxStorageMiB:     10240,
		MaxOrdersPerMonth: -1,
		MaxFactories:      10,
		MaxMachines:       -1,
		MaxProjects:       -1,
	}
	require.NoError(t, config.GetDB().WithContext(context.Background()).Create(&bigger).Error)

	_, err := models.ChangeSubscriptionPlan(ctx, workspace.ID, bigger.ID)
	require.NoError(t, err)

	for _, name := range []string{"Plant A", "Plant B", "Plant C"} {
		_, err := models.CreateFactory(ctx, workspace.ID, profile.ID, &models.NewFactory{Name: name})
		require.NoError(t, err)
	}
}
