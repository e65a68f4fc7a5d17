package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"gorm.io/gorm"
)

// ItemTag categorizes items many-to-many. UsageCount tracks live
// assignments and moves with every assign/unassign.
type ItemTag struct {
	ID          int       `gorm:"primary_key" json:"id"`
	WorkspaceId int       `gorm:"not null;uniqueIndex:idx_itemtag_ws_code,priority:1" json:"workspace_id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	TagCode     string    `gorm:"size:40;not null;uniqueIndex:idx_itemtag_ws_code,priority:2" json:"tag_code" binding:"required"`
	UsageCount  int       `gorm:"not null;default:0" json:"usage_count"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t ItemTag) GetWorkspaceId() int { return t.WorkspaceId }

type ItemTagAssignment struct {
	ID          int       `gorm:"primary_key" json:"id"`
	WorkspaceId int       `gorm:"not null;uniqueIndex:idx_itemtag_assign,priority:1" json:"workspace_id"`
	ItemTagId   int       `gorm:"not null;uniqueIndex:idx_itemtag_assign,priority:2" json:"item_tag_id"`
	ItemId      int       `gorm:"not null;uniqueIndex:idx_itemtag_assign,priority:3" json:"item_id"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewItemTag struct {
	Name    string `json:"name" binding:"required"`
	TagCode string `json:"tag_code" binding:"required"`
}

func CreateItemTag(ctx context.Context, workspaceId int, creatorId int, input *NewItemTag) (*ItemTag, error) {
	if err := utils.ValidateUnique[ItemTag](ctx, workspaceId, "tag_code", input.TagCode, 0); err != nil {
		return nil, ErrConflict
	}
	tag := ItemTag{
		WorkspaceId: workspaceId,
		Name:        input.Name,
		TagCode:     input.TagCode,
		CreatedBy:   creatorId,
	}
	if err := createScoped(ctx, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// AssignItemTag links a tag to an item and bumps the tag's usage count in
// the same unit of work. Assigning twice is a no-op.
func AssignItemTag(ctx context.Context, workspaceId int, userId int, tagId int, itemId int) error {
	if err := utils.ValidateResourceId[ItemTag](ctx, workspaceId, tagId); err != nil {
		return ErrNotFound
	}
	if err := utils.ValidateResourceId[Item](ctx, workspaceId, itemId); err != nil {
		return ErrNotFound
	}

	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		var existing ItemTagAssignment
		err := tx.Where("workspace_id = ? AND item_tag_id = ? AND item_id = ?", workspaceId, tagId, itemId).
			First(&existing).Error
		if err == nil {
			return nil
		}

		assignment := ItemTagAssignment{
			WorkspaceId: workspaceId,
			ItemTagId:   tagId,
			ItemId:      itemId,
			CreatedBy:   userId,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
		if err := tx.Model(&ItemTag{}).Where("id = ?", tagId).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
			return err
		}
		return utils.RemoveRedisInstance[ItemTag](tagId)
	})
}

func UnassignItemTag(ctx context.Context, workspaceId int, tagId int, itemId int) error {
	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("workspace_id = ? AND item_tag_id = ? AND item_id = ?", workspaceId, tagId, itemId).
			Delete(&ItemTagAssignment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&ItemTag{}).
			Where("id = ? AND usage_count > 0", tagId).
			UpdateColumn("usage_count", gorm.Expr("usage_count - 1")).Error; err != nil {
			return err
		}
		return utils.RemoveRedisInstance[ItemTag](tagId)
	})
}

func ListItemTags(ctx context.Context, workspaceId int) ([]*ItemTag, error) {
	return utils.FetchAllModels[ItemTag](ctx, workspaceId)
}

// TagsForItem loads the tags currently assigned to one item.
func TagsForItem(ctx context.Context, workspaceId int, itemId int) ([]*ItemTag, error) {
	db := config.GetDB()
	var tags []*ItemTag
	err := db.WithContext(ctx).
		Joins("JOIN item_tag_assignments ON item_tag_assignments.item_tag_id = item_tags.id").
		Where("item_tags.workspace_id = ? AND item_tag_assignments.item_id = ?", workspaceId, itemId).
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}
