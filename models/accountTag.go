package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

// AccountTag categorizes accounts many-to-many. The five system tags
// seeded at workspace creation cannot be deleted.
type AccountTag struct {
	ID          int       `gorm:"primary_key" json:"id"`
	WorkspaceId int       `gorm:"not null;uniqueIndex:idx_accounttag_ws_name,priority:1" json:"workspace_id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_accounttag_ws_name,priority:2" json:"name" binding:"required"`
	IsSystemTag *bool     `gorm:"not null;default:false" json:"is_system_tag"`
	UsageCount  int       `gorm:"not null;default:0" json:"usage_count"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t AccountTag) GetWorkspaceId() int { return t.WorkspaceId }

type AccountTagAssignment struct {
	ID           int       `gorm:"primary_key" json:"id"`
	WorkspaceId  int       `gorm:"not null;uniqueIndex:idx_accounttag_assign,priority:1" json:"workspace_id"`
	AccountTagId int       `gorm:"not null;uniqueIndex:idx_accounttag_assign,priority:2" json:"account_tag_id"`
	AccountId    int       `gorm:"not null;uniqueIndex:idx_accounttag_assign,priority:3" json:"account_id"`
	CreatedBy    int       `json:"created_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

var defaultAccountTagNames = []string{"Supplier", "Vendor", "Client", "Utility", "Payroll"}

func seedDefaultAccountTags(tx *gorm.DB, workspaceId int) error {
	for _, name := range defaultAccountTagNames {
		tag := AccountTag{
			WorkspaceId: workspaceId,
			Name:        name,
			IsSystemTag: utils.NewTrue(),
		}
		if err := tx.Create(&tag).Error; err != nil {
			return err
		}
	}
	return nil
}

type NewAccountTag struct {
	Name string `json:"name" binding:"required"`
}

func CreateAccountTag(ctx context.Context, workspaceId int, creatorId int, input *NewAccountTag) (*AccountTag, error) {
	if err := utils.ValidateUnique[AccountTag](ctx, workspaceId, "name", input.Name, 0); err != nil {
		return nil, ErrConflict
	}
	tag := AccountTag{
		WorkspaceId: workspaceId,
		Name:        input.Name,
		IsSystemTag: utils.NewFalse(),
		CreatedBy:   creatorId,
	}
	if err := createScoped(ctx, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// AssignAccountTag links a tag to an account, idempotently.
func AssignAccountTag(ctx context.Context, workspaceId int, tagId int, accountId int) error {
	if err := utils.ValidateResourceId[AccountTag](ctx, workspaceId, tagId); err != nil {
		return ErrNotFound
	}
	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		var existing AccountTagAssignment
		err := tx.Where("workspace_id = ? AND account_tag_id = ? AND account_id = ?", workspaceId, tagId, accountId).
			First(&existing).Error
		if err == nil {
			return nil
		}

		assignment := AccountTagAssignment{
			WorkspaceId:  workspaceId,
			AccountTagId: tagId,
			AccountId:    accountId,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
		return tx.Model(&AccountTag{}).Where("id = ?", tagId).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
	})
}

func UnassignAccountTag(ctx context.Context, workspaceId int, tagId int, accountId int) error {
	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("workspace_id = ? AND account_tag_id = ? AND account_id = ?", workspaceId, tagId, accountId).
			Delete(&AccountTagAssignment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&AccountTag{}).
			Where("id = ? AND usage_count > 0", tagId).
			UpdateColumn("usage_count", gorm.Expr("usage_count - 1")).Error
	})
}

func ListAccountTags(ctx context.Context, workspaceId int) ([]*AccountTag, error) {
	return utils.FetchAllModels[AccountTag](ctx, workspaceId)
}

// TagsForAccount loads the tags currently assigned to one account.
func TagsForAccount(ctx context.Context, workspaceId int, accountId int) ([]*AccountTag, error) {
	db := config.GetDB()
	var tags []*AccountTag
	err := db.WithContext(ctx).
		Joins("JOIN account_tag_assignments ON account_tag_assignments.account_tag_id = account_tags.id").
		Where("account_tags.workspace_id = ? AND account_tag_assignments.account_id = ?", workspaceId, accountId).
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}
