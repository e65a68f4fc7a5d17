package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
)

// AccessControl is one permission grant: the role may act on the target
// within the workspace. Absence of a row means deny (closed world).
type AccessControl struct {
	ID          int        `gorm:"primary_key" json:"id"`
	WorkspaceId int        `gorm:"not null;uniqueIndex:idx_ac_grant,priority:1" json:"workspace_id"`
	Type        AccessType `gorm:"size:30;not null;uniqueIndex:idx_ac_grant,priority:2" json:"type"`
	Target      string     `gorm:"size:100;not null;uniqueIndex:idx_ac_grant,priority:3" json:"target"`
	Role        MemberRole `gorm:"size:30;not null;uniqueIndex:idx_ac_grant,priority:4" json:"role"`
	CreatedBy   int        `json:"created_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type NewAccessControl struct {
	Type   AccessType `json:"type" binding:"required"`
	Target string     `json:"target" binding:"required"`
	Role   MemberRole `json:"role" binding:"required"`
}

func permissionCacheKey(workspaceId int, role MemberRole) string {
	return "AccessControl:" + fmt.Sprint(workspaceId) + ":" + string(role)
}

// Permit resolves (workspace, role, type, target). The per-role grant set is
// cached in redis and invalidated on grant/revoke.
func Permit(ctx context.Context, workspaceId int, role MemberRole, accessType AccessType, target string) (bool, error) {
	grants, err := grantSet(ctx, workspaceId, role)
	if err != nil {
		return false, err
	}
	return grants[string(accessType)+"|"+target], nil
}

// IsWorkspaceAdminOp names the operations the owner member may always
// perform, with no grant required: workspace administration.
func IsWorkspaceAdminOp(role MemberRole, target string) bool {
	if role != MemberRoleOwner {
		return false
	}
	switch target {
	case "invite-member", "remove-member", "change-plan":
		return true
	}
	return false
}

func grantSet(ctx context.Context, workspaceId int, role MemberRole) (map[string]bool, error) {
	key := permissionCacheKey(workspaceId, role)
	grants := make(map[string]bool)
	exists, err := config.GetRedisObject(key, &grants)
	if err != nil {
		return nil, err
	}
	if exists {
		return grants, nil
	}

	db := config.GetDB()
	var rows []*AccessControl
	if err := db.WithContext(ctx).
		Where("workspace_id = ? AND role = ?", workspaceId, role).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		grants[string(row.Type)+"|"+row.Target] = true
	}
	if err := config.SetRedisObject(key, grants, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return grants, nil
}

// GrantAccess inserts a permission row, idempotently.
func GrantAccess(ctx context.Context, workspaceId int, grantorId int, input *NewAccessControl) (*AccessControl, error) {
	if !input.Role.Valid() {
		return nil, &DomainError{Code: "validation_error", Status: 422, Message: "invalid role"}
	}

	db := config.GetDB()
	var existing AccessControl
	err := db.WithContext(ctx).
		Where("workspace_id = ? AND type = ? AND target = ? AND role = ?",
			workspaceId, input.Type, input.Target, input.Role).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}

	row := AccessControl{
		WorkspaceId: workspaceId,
		Type:        input.Type,
		Target:      input.Target,
		Role:        input.Role,
		CreatedBy:   grantorId,
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(permissionCacheKey(workspaceId, input.Role)); err != nil {
		return nil, err
	}
	return &row, nil
}

func RevokeAccess(ctx context.Context, workspaceId int, id int) error {
	db := config.GetDB()
	var row AccessControl
	if err := db.WithContext(ctx).Where("workspace_id = ?", workspaceId).First(&row, id).Error; err != nil {
		return ErrNotFound
	}
	if err := db.WithContext(ctx).Delete(&row).Error; err != nil {
		return err
	}
	return config.RemoveRedisKey(permissionCacheKey(workspaceId, row.Role))
}

func ListAccessControls(ctx context.Context, workspaceId int) ([]*AccessControl, error) {
	return utils.FetchAllModels[AccessControl](ctx, workspaceId)
}
