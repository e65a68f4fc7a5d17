package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesOrder struct {
	ID               int        `gorm:"primary_key" json:"id"`
	WorkspaceId      int        `gorm:"not null;index" json:"workspace_id"`
	AccountId        int        `gorm:"not null;index" json:"account_id"`
	FactoryId        int        `gorm:"not null" json:"factory_id"`
	OrderNumber      string     `gorm:"size:50" json:"order_number"`
	OrderDate        time.Time  `gorm:"not null" json:"order_date"`
	IsFullyDelivered *bool      `gorm:"not null;default:false" json:"is_fully_delivered"`
	Notes            string     `gorm:"type:text" json:"notes"`
	CreatedBy        int        `gorm:"not null" json:"created_by"`
	UpdatedBy        int        `json:"updated_by"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted        *bool      `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt        *time.Time `json:"deleted_at"`
	DeletedBy        int        `json:"deleted_by"`

	Items []*SalesOrderItem `gorm:"foreignKey:SalesOrderId" json:"items,omitempty"`
}

func (s SalesOrder) GetWorkspaceId() int { return s.WorkspaceId }

type SalesOrderItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	WorkspaceId       int             `gorm:"not null;index" json:"workspace_id"`
	SalesOrderId      int             `gorm:"not null;index" json:"sales_order_id"`
	ItemId            int             `gorm:"not null" json:"item_id"`
	QuantityOrdered   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_ordered"`
	QuantityDelivered decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_delivered"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i SalesOrderItem) GetWorkspaceId() int { return i.WorkspaceId }

type NewSalesOrderItem struct {
	ItemId          int             `json:"item_id" binding:"required"`
	QuantityOrdered decimal.Decimal `json:"quantity_ordered" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

type NewSalesOrder struct {
	AccountId   int                  `json:"account_id" binding:"required"`
	FactoryId   int                  `json:"factory_id" binding:"required"`
	OrderNumber string               `json:"order_number"`
	OrderDate   *time.Time           `json:"order_date"`
	Notes       string               `json:"notes"`
	Items       []*NewSalesOrderItem `json:"items" binding:"required,min=1,dive"`
}

func CreateSalesOrder(ctx context.Context, workspaceId int, creatorId int, input *NewSalesOrder) (*SalesOrder, error) {
	if err := utils.ValidateResourceId[Account](ctx, workspaceId, input.AccountId); err != nil {
		return nil, ErrNotFound
	}
	if err := utils.ValidateResourceId[Factory](ctx, workspaceId, input.FactoryId); err != nil {
		return nil, ErrNotFound
	}
	itemIds := make([]int, 0, len(input.Items))
	for _, line := range input.Items {
		itemIds = append(itemIds, line.ItemId)
	}
	if err := utils.ValidateResourcesId[Item](ctx, workspaceId, utils.UniqueSlice(itemIds)); err != nil {
		return nil, ErrNotFound
	}

	orderDate := time.Now()
	if input.OrderDate != nil {
		orderDate = *input.OrderDate
	}
	order := SalesOrder{
		WorkspaceId:      workspaceId,
		AccountId:        input.AccountId,
		FactoryId:        input.FactoryId,
		OrderNumber:      input.OrderNumber,
		OrderDate:        orderDate,
		IsFullyDelivered: utils.NewFalse(),
		Notes:            input.Notes,
		CreatedBy:        creatorId,
		IsDeleted:        utils.NewFalse(),
	}
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, line := range input.Items {
			item := SalesOrderItem{
				WorkspaceId:     workspaceId,
				SalesOrderId:    order.ID,
				ItemId:          line.ItemId,
				QuantityOrdered: line.QuantityOrdered,
				UnitPrice:       line.UnitPrice,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, &item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func GetSalesOrderWithItems(ctx context.Context, workspaceId int, id int) (*SalesOrder, error) {
	db := config.GetDB()
	var order SalesOrder
	err := db.WithContext(ctx).
		Preload("Items").
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

func ListSalesOrders(ctx context.Context, params ListParams) ([]*SalesOrder, int64, error) {
	return ListResource[SalesOrder](ctx, params, MaxListLimit, true)
}

// RefreshFullyDelivered recomputes the envelope flag from its lines.
// Runs inside the delivery unit of work.
func RefreshFullyDelivered(tx *gorm.DB, order *SalesOrder) error {
	var items []*SalesOrderItem
	if err := tx.Where("workspace_id = ? AND sales_order_id = ?", order.WorkspaceId, order.ID).
		Find(&items).Error; err != nil {
		return err
	}
	full := len(items) > 0
	for _, item := range items {
		if item.QuantityDelivered.LessThan(item.QuantityOrdered) {
			full = false
			break
		}
	}
	return tx.Model(order).UpdateColumn("is_fully_delivered", full).Error
}
