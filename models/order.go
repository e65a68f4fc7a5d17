package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the procurement/transfer envelope. Status transitions run
// through the workflow engine, never through a plain update.
type Order struct {
	ID                 int           `gorm:"primary_key" json:"id"`
	WorkspaceId        int           `gorm:"not null;index" json:"workspace_id"`
	TypeCode           OrderTypeCode `gorm:"size:10;not null;index" json:"type_code"`
	DepartmentId       int           `gorm:"not null" json:"department_id"`
	FactoryId          int           `gorm:"not null;index" json:"factory_id"`
	FactorySectionId   int           `json:"factory_section_id"`
	MachineId          int           `json:"machine_id"`
	SourceFactoryId    int           `json:"source_factory_id"`
	SourceMachineId    int           `json:"source_machine_id"`
	ProjectComponentId int           `json:"project_component_id"`
	CurrentStatusId    int           `gorm:"not null;index" json:"current_status_id"`
	Description        string        `gorm:"type:text" json:"description"`
	CreatedBy          int           `gorm:"not null" json:"created_by"`
	UpdatedBy          int           `json:"updated_by"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted          *bool         `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt          *time.Time    `json:"deleted_at"`
	DeletedBy          int           `json:"deleted_by"`

	Items []*OrderItem `gorm:"foreignKey:OrderId" json:"items,omitempty"`
}

func (o Order) GetWorkspaceId() int { return o.WorkspaceId }

type OrderItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	WorkspaceId int             `gorm:"not null;index" json:"workspace_id"`
	OrderId     int             `gorm:"not null;index" json:"order_id"`
	ItemId      int             `gorm:"not null" json:"item_id"`
	Qty         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	Vendor      string          `gorm:"size:100" json:"vendor"`

	ApprovedPendingOrder      *bool `gorm:"not null;default:false" json:"approved_pending_order"`
	ApprovedOfficeOrder       *bool `gorm:"not null;default:false" json:"approved_office_order"`
	ApprovedBudget            *bool `gorm:"not null;default:false" json:"approved_budget"`
	ApprovedStorageWithdrawal *bool `gorm:"not null;default:false" json:"approved_storage_withdrawal"`
	InStorage                 *bool `gorm:"not null;default:false" json:"in_storage"`
	IsSampleSentToOffice      *bool `gorm:"not null;default:false" json:"is_sample_sent_to_office"`
	IsSampleReceivedByOffice  *bool `gorm:"not null;default:false" json:"is_sample_received_by_office"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	UpdatedBy int        `json:"updated_by"`
	IsDeleted *bool      `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
}

func (i OrderItem) GetWorkspaceId() int { return i.WorkspaceId }

type NewOrderItem struct {
	ItemId   int             `json:"item_id" binding:"required"`
	Qty      decimal.Decimal `json:"qty" binding:"required"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Vendor   string          `json:"vendor"`
}

type NewOrder struct {
	TypeCode           OrderTypeCode   `json:"type_code" binding:"required"`
	DepartmentId       int             `json:"department_id" binding:"required"`
	FactoryId          int             `json:"factory_id" binding:"required"`
	FactorySectionId   int             `json:"factory_section_id"`
	MachineId          int             `json:"machine_id"`
	SourceFactoryId    int             `json:"source_factory_id"`
	SourceMachineId    int             `json:"source_machine_id"`
	ProjectComponentId int             `json:"project_component_id"`
	Description        string          `json:"description"`
	Items              []*NewOrderItem `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder validates every referenced resource, places the order at
// the first status of its workflow and counts it against the monthly
// plan ceiling.
func CreateOrder(ctx context.Context, workspaceId int, creatorId int, input *NewOrder) (*Order, error) {
	workflow, err := GetWorkflowByType(ctx, workspaceId, input.TypeCode)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Department](ctx, workspaceId, input.DepartmentId); err != nil {
		return nil, ErrNotFound
	}
	if err := utils.ValidateResourceId[Factory](ctx, workspaceId, input.FactoryId); err != nil {
		return nil, ErrNotFound
	}
	if input.MachineId != 0 {
		if err := utils.ValidateResourceId[Machine](ctx, workspaceId, input.MachineId); err != nil {
			return nil, ErrNotFound
		}
	}
	if input.SourceFactoryId != 0 {
		if err := utils.ValidateResourceId[Factory](ctx, workspaceId, input.SourceFactoryId); err != nil {
			return nil, ErrNotFound
		}
	}
	if input.ProjectComponentId != 0 {
		if err := utils.ValidateResourceId[ProjectComponent](ctx, workspaceId, input.ProjectComponentId); err != nil {
			return nil, ErrNotFound
		}
	}
	itemIds := make([]int, 0, len(input.Items))
	for _, line := range input.Items {
		itemIds = append(itemIds, line.ItemId)
	}
	if err := utils.ValidateResourcesId[Item](ctx, workspaceId, utils.UniqueSlice(itemIds)); err != nil {
		return nil, ErrNotFound
	}

	order := Order{
		WorkspaceId:        workspaceId,
		TypeCode:           input.TypeCode,
		DepartmentId:       input.DepartmentId,
		FactoryId:          input.FactoryId,
		FactorySectionId:   input.FactorySectionId,
		MachineId:          input.MachineId,
		SourceFactoryId:    input.SourceFactoryId,
		SourceMachineId:    input.SourceMachineId,
		ProjectComponentId: input.ProjectComponentId,
		CurrentStatusId:    workflow.InitialStatus(),
		Description:        input.Description,
		CreatedBy:          creatorId,
		IsDeleted:          utils.NewFalse(),
	}
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := CheckPlanLimit(tx, workspaceId, CounterOrders); err != nil {
			return err
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, line := range input.Items {
			item := OrderItem{
				WorkspaceId: workspaceId,
				OrderId:     order.ID,
				ItemId:      line.ItemId,
				Qty:         line.Qty,
				UnitCost:    line.UnitCost,
				Vendor:      line.Vendor,

				ApprovedPendingOrder:      utils.NewFalse(),
				ApprovedOfficeOrder:       utils.NewFalse(),
				ApprovedBudget:            utils.NewFalse(),
				ApprovedStorageWithdrawal: utils.NewFalse(),
				InStorage:                 utils.NewFalse(),
				IsSampleSentToOffice:      utils.NewFalse(),
				IsSampleReceivedByOffice:  utils.NewFalse(),
				IsDeleted:                 utils.NewFalse(),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, &item)
		}
		return AdjustUsage(tx, workspaceId, CounterOrders, 1)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderWithItems loads the envelope plus its live lines.
func GetOrderWithItems(ctx context.Context, workspaceId int, id int) (*Order, error) {
	db := config.GetDB()
	var order Order
	err := db.WithContext(ctx).
		Preload("Items", "is_deleted = ?", false).
		Where("workspace_id = ? AND id = ? AND is_deleted = ?", workspaceId, id, false).
		First(&order).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type OrderListFilter struct {
	TypeCode  OrderTypeCode
	FactoryId int
	StatusId  int
}

func ListOrders(ctx context.Context, workspaceId int, filter OrderListFilter, params ListParams) ([]*Order, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&Order{}).Where("workspace_id = ?", workspaceId)
	if !params.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if filter.TypeCode != "" {
		query = query.Where("type_code = ?", filter.TypeCode)
	}
	if filter.FactoryId != 0 {
		query = query.Where("factory_id = ?", filter.FactoryId)
	}
	if filter.StatusId != 0 {
		query = query.Where("current_status_id = ?", filter.StatusId)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []*Order
	if err := query.Order("id DESC").Offset(params.Skip).Limit(params.Limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func DeleteOrder(ctx context.Context, workspaceId int, id int, deleterId int) error {
	order, err := utils.FetchModel[Order](ctx, workspaceId, id)
	if err != nil {
		return ErrNotFound
	}
	now := time.Now()
	return config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(order).UpdateColumns(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": deleterId,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&OrderItem{}).
			Where("workspace_id = ? AND order_id = ?", workspaceId, order.ID).
			UpdateColumns(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	})
}
