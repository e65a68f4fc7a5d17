package models_test

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/stretchr/testify/require"
)

func TestInviteAndAcceptInvitation(t *testing.T) {
	setupTestDB(t)
	ctx, owner, workspace := registerTenant(t, "owner@example.com")

	invitation, err := models.InviteMember(ctx, workspace.ID, owner.ID, &models.NewInvitation{
		Email: "worker@example.com",
		Role:  models.MemberRoleGroundTeam,
	})
	require.NoError(t, err)
	require.Equal(t, models.InvitationStatusPending, invitation.Status)
	require.NotEmpty(t, invitation.Token)

	// the invitee registers on their own, then redeems the token
	_, worker, _ := registerTenant(t, "worker@example.com")

	member, err := models.AcceptInvitation(context.Background(), invitation.Token, worker.ID)
	require.NoError(t, err)
	require.Equal(t, workspace.ID, member.WorkspaceId)
	require.Equal(t, models.MemberRoleGroundTeam, member.Role)
	require.Equal(t, models.MemberStatusActive, member.Status)

	// redeemed tokens cannot be replayed
	_, err = models.AcceptInvitation(context.Background(), invitation.Token, worker.ID)
	require.ErrorIs(t, err, models.ErrInvitationExpired)
}

func TestInviteMemberRejectsDuplicates(t *testing.T) {
	setupTestDB(t)
	ctx, owner, workspace := registerTenant(t, "owner@example.com")

	_, err := models.InviteMember(ctx, workspace.ID, owner.ID, &models.NewInvitation{
		Email: "worker@example.com",
		Role:  models.MemberRoleGroundTeam,
	})
	require.NoError(t, err)

	_, err = models.InviteMember(ctx, workspace.ID, owner.ID, &models.NewInvitation{
		Email: "worker@example.com",
		Role:  models.MemberRoleFinance,
	})
	require.ErrorIs(t, err, models.ErrDuplicateInvitation)
}

func TestInviteMemberRejectsOwnerRoleAndExistingMembers(t *testing.T) {
	setupTestDB(t)
	ctx, owner, workspace := registerTenant(t, "owner@example.com")

	_, err := models.InviteMember(ctx, workspace.ID, owner.ID, &models.NewInvitation{
		Email: "worker@example.com",
		Role:  models.MemberRoleOwner,
	})
	require.Error(t, err)

	_, err = models.InviteMember(ctx, workspace.ID, owner.ID, &models.NewInvitation{
		Email: "owner@example.com",
		Role:  models.MemberRoleFinance,
	})
	require.ErrorIs(t, err, models.ErrAlreadyMember)
}

func TestAcceptInvitationChecksEmail(t *testing.T) {
	setupTestDB(t)
	ctx, owner, workspace := registerTenant(t, "owner@example.com")

	invitation, err := models.InviteMember(ctx, workspace.ID, owner.ID, &models.NewInvitation{
		Email: "worker@example.com",
		Role:  models.MemberRoleGroundTeam,
	})
	require.NoError(t, err)

	_, impostor, _ := registerTenant(t, "impostor@example.com")
	_, err = models.AcceptInvitation(context.Background(), invitation.Token, impostor.ID)
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestExpiredInvitationsLapseAndCanBeReissued(t *testing.T) {
	setupTestDB(t)
	ctx, owner, workspace := registerTenant(t, "owner@example.com")

	invitation, err := models.InviteMember(ctx, workspace.ID, owner.ID, &models.NewInvitation{
		Email: "worker@example.com",
		Role:  models.MemberRoleGroundTeam,
	})
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	err = config.GetDB().WithContext(context.Background()).
		Model(&models.WorkspaceInvitation{}).
		Where("id = ?", invitation.ID).
		UpdateColumn("expires_at", past).Error
	require.NoError(t, err)

	// lapsed tokens are dead even before the sweep flips them
	_, worker, _ := registerTenant(t, "worker@example.com")
	_, err = models.AcceptInvitation(context.Background(), invitation.Token, worker.ID)
	require.ErrorIs(t, err, models.ErrInvitationExpired)

	flipped, err := models.ExpirePendingInvitations(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), flipped)

	// a fresh invitation replaces the lapsed row
	reissued, err := models.InviteMember(ctx, workspace.ID, owner.ID, &models.NewInvitation{
		Email: "worker@example.com",
		Role:  models.MemberRoleGroundTeam,
	})
	require.NoError(t, err)
	require.NotEqual(t, invitation.Token, reissued.Token)
	require.Equal(t, models.InvitationStatusPending, reissued.Status)
}
