package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductionBatch is one run of a formula. Completing it moves stock:
// inputs leave their source locations, outputs land in inventory.
type ProductionBatch struct {
	ID          int         `gorm:"primary_key" json:"id"`
	WorkspaceId int         `gorm:"not null;index" json:"workspace_id"`
	FormulaId   int         `gorm:"not null;index" json:"formula_id"`
	FactoryId   int         `gorm:"not null" json:"factory_id"`
	BatchNumber string      `gorm:"size:50" json:"batch_number"`
	Status      BatchStatus `gorm:"size:15;not null;default:draft" json:"status"`
	StartedAt   *time.Time  `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at"`
	CompletedBy int         `json:"completed_by"`
	Notes       string      `gorm:"type:text" json:"notes"`
	CreatedBy   int         `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	Items []*ProductionBatchItem `gorm:"foreignKey:BatchId" json:"items,omitempty"`
}

func (b ProductionBatch) GetWorkspaceId() int { return b.WorkspaceId }

type ProductionBatchItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	WorkspaceId int             `gorm:"not null;index" json:"workspace_id"`
	BatchId     int             `gorm:"not null;index" json:"batch_id"`
	ItemId      int             `gorm:"not null" json:"item_id"`
	Role        FormulaRole     `gorm:"size:15;not null" json:"role"`
	ExpectedQty decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"expected_qty"`
	ActualQty   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"actual_qty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductionBatch struct {
	FormulaId   int             `json:"formula_id" binding:"required"`
	FactoryId   int             `json:"factory_id" binding:"required"`
	BatchNumber string          `json:"batch_number"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Notes       string          `json:"notes"`
}

// CreateProductionBatch snapshots the formula lines into batch items so
// later formula edits cannot change a batch already on the floor.
func CreateProductionBatch(ctx context.Context, workspaceId int, creatorId int, input *NewProductionBatch) (*ProductionBatch, error) {
	formula, err := GetFormulaWithItems(ctx, workspaceId, input.FormulaId)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Factory](ctx, workspaceId, input.FactoryId); err != nil {
		return nil, ErrNotFound
	}
	multiplier := input.Multiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	if multiplier.IsNegative() {
		return nil, newDomainError("validation_error", 422, "multiplier must be positive")
	}

	batch := ProductionBatch{
		WorkspaceId: workspaceId,
		FormulaId:   formula.ID,
		FactoryId:   input.FactoryId,
		BatchNumber: input.BatchNumber,
		Status:      BatchStatusDraft,
		Notes:       input.Notes,
		CreatedBy:   creatorId,
	}
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		for _, line := range formula.Items {
			item := ProductionBatchItem{
				WorkspaceId: workspaceId,
				BatchId:     batch.ID,
				ItemId:      line.ItemId,
				Role:        line.Role,
				ExpectedQty: line.Quantity.Mul(multiplier),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			batch.Items = append(batch.Items, &item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func GetBatchWithItems(ctx context.Context, workspaceId int, id int) (*ProductionBatch, error) {
	db := config.GetDB()
	var batch ProductionBatch
	err := db.WithContext(ctx).
		Preload("Items").
		Where("workspace_id = ? AND id = ?", workspaceId, id).
		First(&batch).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// StartBatch moves a draft batch to in_progress.
func StartBatch(ctx context.Context, workspaceId int, id int) (*ProductionBatch, error) {
	batch, err := GetBatchWithItems(ctx, workspaceId, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != BatchStatusDraft {
		return nil, ErrConflict
	}
	now := time.Now()
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(batch).
		UpdateColumns(map[string]interface{}{"status": BatchStatusInProgress, "started_at": now}).Error; err != nil {
		return nil, err
	}
	batch.Status = BatchStatusInProgress
	batch.StartedAt = &now
	return batch, nil
}

// CancelBatch abandons a batch that has not completed. No stock moves.
func CancelBatch(ctx context.Context, workspaceId int, id int) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&ProductionBatch{}).
		Where("workspace_id = ? AND id = ? AND status IN ?", workspaceId, id,
			[]BatchStatus{BatchStatusDraft, BatchStatusInProgress}).
		UpdateColumn("status", BatchStatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func ListProductionBatches(ctx context.Context, workspaceId int, params ListParams) ([]*ProductionBatch, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&ProductionBatch{}).Where("workspace_id = ?", workspaceId)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var batches []*ProductionBatch
	if err := query.Order("id DESC").Offset(params.Skip).Limit(params.Limit).Find(&batches).Error; err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}
