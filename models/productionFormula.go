package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductionFormula is a recipe: which items go in, which come out, and
// the tolerance the actuals may drift from the expected quantities.
type ProductionFormula struct {
	ID          int        `gorm:"primary_key" json:"id"`
	WorkspaceId int        `gorm:"not null;index" json:"workspace_id"`
	Name        string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string     `gorm:"type:text" json:"description"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedBy   int        `json:"created_by"`
	UpdatedBy   int        `json:"updated_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted   *bool      `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at"`
	DeletedBy   int        `json:"deleted_by"`

	Items []*ProductionFormulaItem `gorm:"foreignKey:FormulaId" json:"items,omitempty"`
}

func (f ProductionFormula) GetWorkspaceId() int { return f.WorkspaceId }

type ProductionFormulaItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	WorkspaceId  int             `gorm:"not null;index" json:"workspace_id"`
	FormulaId    int             `gorm:"not null;index" json:"formula_id"`
	ItemId       int             `gorm:"not null" json:"item_id"`
	Role         FormulaRole     `gorm:"size:15;not null" json:"role"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	TolerancePct decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"tolerance_pct"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewProductionFormulaItem struct {
	ItemId       int             `json:"item_id" binding:"required"`
	Role         FormulaRole     `json:"role" binding:"required,oneof=input output waste byproduct"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	TolerancePct decimal.Decimal `json:"tolerance_pct"`
}

type NewProductionFormula struct {
	Name        string                      `json:"name" binding:"required"`
	Description string                      `json:"description"`
	Items       []*NewProductionFormulaItem `json:"items" binding:"required,min=2,dive"`
}

// validateRoles requires at least one input and one output line.
func (input *NewProductionFormula) validateRoles() error {
	var hasInput, hasOutput bool
	for _, line := range input.Items {
		switch line.Role {
		case FormulaRoleInput:
			hasInput = true
		case FormulaRoleOutput:
			hasOutput = true
		}
	}
	if !hasInput || !hasOutput {
		return newDomainError("validation_error", 422, "formula needs at least one input and one output")
	}
	return nil
}

func CreateProductionFormula(ctx context.Context, workspaceId int, creatorId int, input *NewProductionFormula) (*ProductionFormula, error) {
	if err := input.validateRoles(); err != nil {
		return nil, err
	}
	itemIds := make([]int, 0, len(input.Items))
	for _, line := range input.Items {
		itemIds = append(itemIds, line.ItemId)
	}
	if err := utils.ValidateResourcesId[Item](ctx, workspaceId, utils.UniqueSlice(itemIds)); err != nil {
		return nil, ErrNotFound
	}

	formula := ProductionFormula{
		WorkspaceId: workspaceId,
		Name:        input.Name,
		Description: input.Description,
		IsActive:    utils.NewTrue(),
		IsDeleted:   utils.NewFalse(),
		CreatedBy:   creatorId,
	}
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&formula).Error; err != nil {
			return err
		}
		for _, line := range input.Items {
			item := ProductionFormulaItem{
				WorkspaceId:  workspaceId,
				FormulaId:    formula.ID,
				ItemId:       line.ItemId,
				Role:         line.Role,
				Quantity:     line.Quantity,
				TolerancePct: line.TolerancePct,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			formula.Items = append(formula.Items, &item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &formula, nil
}

func GetFormulaWithItems(ctx context.Context, workspaceId int, id int) (*ProductionFormula, error) {
	db := config.GetDB()
	var formula ProductionFormula
	err := db.WithContext(ctx).
		Preload("Items").
		Where("workspace_id = ? AND id = ? AND is_deleted = ?", workspaceId, id, false).
		First(&formula).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &formula, nil
}

func ListProductionFormulas(ctx context.Context, params ListParams) ([]*ProductionFormula, int64, error) {
	return ListResource[ProductionFormula](ctx, params, MaxListLimit, true)
}
