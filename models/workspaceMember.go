package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

// WorkspaceMember links a profile to a workspace with a role. One owner
// member per workspace; unique on (workspace, profile).
type WorkspaceMember struct {
	ID          int          `gorm:"primary_key" json:"id"`
	WorkspaceId int          `gorm:"not null;uniqueIndex:idx_member_ws_profile,priority:1" json:"workspace_id"`
	ProfileId   int          `gorm:"not null;uniqueIndex:idx_member_ws_profile,priority:2" json:"profile_id"`
	Role        MemberRole   `gorm:"size:30;not null" json:"role"`
	Status      MemberStatus `gorm:"size:20;not null;default:active" json:"status"`
	CreatedBy   int          `json:"created_by"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:ProfileId"`
}

// GetActiveMember resolves (workspace, user) to the membership row. This is
// the lookup behind every request's access context.
func GetActiveMember(ctx context.Context, workspaceId int, profileId int) (*WorkspaceMember, error) {
	db := config.GetDB()
	// Membership resolution happens before a workspace context exists.
	scopeless := utils.SetSkipTenantScopeInContext(ctx, true)

	var member WorkspaceMember
	err := db.WithContext(scopeless).
		Where("workspace_id = ? AND profile_id = ?", workspaceId, profileId).
		First(&member).Error
	if err != nil {
		return nil, ErrNotAMember
	}
	if member.Status != MemberStatusActive {
		return nil, ErrNotAMember
	}
	return &member, nil
}

func ListWorkspaceMembers(ctx context.Context, workspaceId int) ([]*WorkspaceMember, error) {
	return utils.FetchAllModels[WorkspaceMember](ctx, workspaceId, "Profile")
}

// ListWorkspacesForProfile returns every workspace the user can switch to.
func ListWorkspacesForProfile(ctx context.Context, profileId int) ([]*Workspace, error) {
	db := config.GetDB()
	scopeless := utils.SetSkipTenantScopeInContext(ctx, true)

	var workspaces []*Workspace
	err := db.WithContext(scopeless).
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.profile_id = ? AND workspace_members.status = ?", profileId, MemberStatusActive).
		Find(&workspaces).Error
	if err != nil {
		return nil, err
	}
	return workspaces, nil
}

// RemoveWorkspaceMember drops a member and releases a seat. The owner member
// cannot be removed.
func RemoveWorkspaceMember(ctx context.Context, workspaceId int, memberId int) error {
	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		var member WorkspaceMember
		if err := tx.Where("workspace_id = ?", workspaceId).First(&member, memberId).Error; err != nil {
			return ErrNotFound
		}
		if member.Role == MemberRoleOwner {
			return ErrForbidden
		}
		if err := tx.Delete(&member).Error; err != nil {
			return err
		}
		return AdjustUsage(tx, workspaceId, CounterMembers, -1)
	})
}

// SuspendWorkspaceMember keeps the row but blocks access context resolution.
func SuspendWorkspaceMember(ctx context.Context, workspaceId int, memberId int) (*WorkspaceMember, error) {
	db := config.GetDB()
	var member WorkspaceMember
	if err := db.WithContext(ctx).Where("workspace_id = ?", workspaceId).First(&member, memberId).Error; err != nil {
		return nil, ErrNotFound
	}
	if member.Role == MemberRoleOwner {
		return nil, ErrForbidden
	}
	if err := db.WithContext(ctx).Model(&member).UpdateColumn("status", MemberStatusSuspended).Error; err != nil {
		return nil, err
	}
	return &member, nil
}
