package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
)

// Item is one catalog entry / SKU.
type Item struct {
	ID            int        `gorm:"primary_key" json:"id"`
	WorkspaceId   int        `gorm:"not null;uniqueIndex:idx_item_ws_sku,priority:1" json:"workspace_id"`
	Name          string     `gorm:"size:150;not null" json:"name" binding:"required"`
	UnitOfMeasure string     `gorm:"size:20;not null;default:pcs" json:"unit_of_measure"`
	Sku           string     `gorm:"size:64;not null;uniqueIndex:idx_item_ws_sku,priority:2" json:"sku" binding:"required"`
	IsActive      *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedBy     int        `json:"created_by"`
	UpdatedBy     int        `json:"updated_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted     *bool      `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt     *time.Time `json:"deleted_at"`
	DeletedBy     int        `json:"deleted_by"`
}

func (i Item) GetWorkspaceId() int { return i.WorkspaceId }

type NewItem struct {
	Name          string `json:"name" binding:"required"`
	UnitOfMeasure string `json:"unit_of_measure"`
	Sku           string `json:"sku" binding:"required"`
}

type UpdateItem struct {
	Name          string `json:"name"`
	UnitOfMeasure string `json:"unit_of_measure"`
	IsActive      *bool  `json:"is_active"`
}

func CreateItem(ctx context.Context, workspaceId int, creatorId int, input *NewItem) (*Item, error) {
	if err := utils.ValidateUnique[Item](ctx, workspaceId, "sku", input.Sku, 0); err != nil {
		return nil, ErrConflict
	}

	uom := input.UnitOfMeasure
	if uom == "" {
		uom = "pcs"
	}
	item := Item{
		WorkspaceId:   workspaceId,
		Name:          input.Name,
		UnitOfMeasure: uom,
		Sku:           input.Sku,
		IsActive:      utils.NewTrue(),
		IsDeleted:     utils.NewFalse(),
		CreatedBy:     creatorId,
	}
	if err := createScoped(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func UpdateItemById(ctx context.Context, workspaceId int, id int, updaterId int, input *UpdateItem) (*Item, error) {
	item, err := utils.FetchModel[Item](ctx, workspaceId, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if input.Name != "" {
		item.Name = input.Name
	}
	if input.UnitOfMeasure != "" {
		item.UnitOfMeasure = input.UnitOfMeasure
	}
	if input.IsActive != nil {
		item.IsActive = input.IsActive
	}
	item.UpdatedBy = updaterId

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisInstance[Item](id); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem soft-deletes: the row stays for ledger references.
func DeleteItem(ctx context.Context, workspaceId int, id int, deleterId int) error {
	item, err := utils.FetchModel[Item](ctx, workspaceId, id)
	if err != nil {
		return ErrNotFound
	}
	now := time.Now()
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(item).
		UpdateColumns(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": deleterId,
		}).Error; err != nil {
		return err
	}
	if err := createHistory(db.WithContext(ctx), historyActionDelete, id, "Item", nil, nil, item.Sku); err != nil {
		return err
	}
	return utils.RemoveRedisInstance[Item](id)
}
