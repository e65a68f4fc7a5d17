package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesDelivery is one shipment against a sales order. Confirming it
// consumes finished goods from the factory inventory ledger.
type SalesDelivery struct {
	ID           int        `gorm:"primary_key" json:"id"`
	WorkspaceId  int        `gorm:"not null;index" json:"workspace_id"`
	SalesOrderId int        `gorm:"not null;index" json:"sales_order_id"`
	DeliveryDate time.Time  `gorm:"not null" json:"delivery_date"`
	IsConfirmed  *bool      `gorm:"not null;default:false" json:"is_confirmed"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`
	ConfirmedBy  int        `json:"confirmed_by"`
	Notes        string     `gorm:"type:text" json:"notes"`
	CreatedBy    int        `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Items []*SalesDeliveryItem `gorm:"foreignKey:SalesDeliveryId" json:"items,omitempty"`
}

func (d SalesDelivery) GetWorkspaceId() int { return d.WorkspaceId }

type SalesDeliveryItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	WorkspaceId       int             `gorm:"not null;index" json:"workspace_id"`
	SalesDeliveryId   int             `gorm:"not null;index" json:"sales_delivery_id"`
	SalesOrderItemId  int             `gorm:"not null;index" json:"sales_order_item_id"`
	ItemId            int             `gorm:"not null" json:"item_id"`
	QuantityDelivered decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_delivered"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewSalesDeliveryItem struct {
	SalesOrderItemId  int             `json:"sales_order_item_id" binding:"required"`
	QuantityDelivered decimal.Decimal `json:"quantity_delivered" binding:"required"`
}

type NewSalesDelivery struct {
	SalesOrderId int                     `json:"sales_order_id" binding:"required"`
	DeliveryDate *time.Time              `json:"delivery_date"`
	Notes        string                  `json:"notes"`
	Items        []*NewSalesDeliveryItem `json:"items" binding:"required,min=1,dive"`
}

// CreateSalesDelivery stages a draft delivery. Line quantities are
// validated against the remaining undelivered balance so no later
// confirmation can push a line past its ordered quantity.
func CreateSalesDelivery(ctx context.Context, workspaceId int, creatorId int, input *NewSalesDelivery) (*SalesDelivery, error) {
	order, err := GetSalesOrderWithItems(ctx, workspaceId, input.SalesOrderId)
	if err != nil {
		return nil, err
	}
	orderItems := make(map[int]*SalesOrderItem, len(order.Items))
	for _, item := range order.Items {
		orderItems[item.ID] = item
	}
	for _, line := range input.Items {
		orderItem, ok := orderItems[line.SalesOrderItemId]
		if !ok {
			return nil, ErrNotFound
		}
		remaining := orderItem.QuantityOrdered.Sub(orderItem.QuantityDelivered)
		if line.QuantityDelivered.GreaterThan(remaining) {
			return nil, ErrDeliveryExceeded
		}
	}

	deliveryDate := time.Now()
	if input.DeliveryDate != nil {
		deliveryDate = *input.DeliveryDate
	}
	delivery := SalesDelivery{
		WorkspaceId:  workspaceId,
		SalesOrderId: order.ID,
		DeliveryDate: deliveryDate,
		IsConfirmed:  new(bool),
		Notes:        input.Notes,
		CreatedBy:    creatorId,
	}
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&delivery).Error; err != nil {
			return err
		}
		for _, line := range input.Items {
			item := SalesDeliveryItem{
				WorkspaceId:       workspaceId,
				SalesDeliveryId:   delivery.ID,
				SalesOrderItemId:  line.SalesOrderItemId,
				ItemId:            orderItems[line.SalesOrderItemId].ItemId,
				QuantityDelivered: line.QuantityDelivered,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			delivery.Items = append(delivery.Items, &item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func GetSalesDeliveryWithItems(ctx context.Context, workspaceId int, id int) (*SalesDelivery, error) {
	db := config.GetDB()
	var delivery SalesDelivery
	err := db.WithContext(ctx).
		Preload("Items").
		Where("workspace_id = ? AND id = ?", workspaceId, id).
		First(&delivery).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func ListSalesDeliveries(ctx context.Context, workspaceId int, salesOrderId int, params ListParams) ([]*SalesDelivery, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&SalesDelivery{}).Where("workspace_id = ?", workspaceId)
	if salesOrderId != 0 {
		query = query.Where("sales_order_id = ?", salesOrderId)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var deliveries []*SalesDelivery
	if err := query.Order("id DESC").Offset(params.Skip).Limit(params.Limit).Find(&deliveries).Error; err != nil {
		return nil, 0, err
	}
	return deliveries, total, nil
}
