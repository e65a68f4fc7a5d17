package workflow

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"gorm.io/gorm"
)

// ConfirmDelivery posts a staged sales delivery: each line consumes
// finished goods from the factory inventory ledger, the sales order
// lines accrue their delivered quantity and the order's fully-delivered
// flag is recomputed. All of it commits or none of it does.
func ConfirmDelivery(ctx context.Context, workspaceId int, deliveryId int, userId int) (*models.SalesDelivery, error) {
	delivery, err := models.GetSalesDeliveryWithItems(ctx, workspaceId, deliveryId)
	if err != nil {
		return nil, err
	}
	if delivery.IsConfirmed != nil && *delivery.IsConfirmed {
		return nil, models.ErrConflict
	}
	order, err := models.GetSalesOrderWithItems(ctx, workspaceId, delivery.SalesOrderId)
	if err != nil {
		return nil, err
	}
	orderItems := make(map[int]*models.SalesOrderItem, len(order.Items))
	for _, item := range order.Items {
		orderItems[item.ID] = item
	}

	now := time.Now()
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, workspaceId); err != nil {
			return err
		}
		defer ReleaseStockPostingLock(tx, workspaceId)

		for _, line := range delivery.Items {
			orderItem, ok := orderItems[line.SalesOrderItemId]
			if !ok {
				return models.ErrNotFound
			}
			delivered := orderItem.QuantityDelivered.Add(line.QuantityDelivered)
			if delivered.GreaterThan(orderItem.QuantityOrdered) {
				return models.ErrDeliveryExceeded
			}

			_, err := RecordEntry[models.InventoryItem, models.InventoryItemLedger](tx, RecordRequest{
				WorkspaceId: workspaceId,
				LocationId:  order.FactoryId,
				ItemId:      line.ItemId,
				Type:        models.TxTypeConsumption,
				Quantity:    line.QuantityDelivered,
				SourceType:  "sales_delivery",
				OrderId:     order.ID,
				PerformedBy: userId,
			})
			if err != nil {
				return err
			}

			if err := tx.Model(orderItem).
				UpdateColumn("quantity_delivered", delivered).Error; err != nil {
				return err
			}
			orderItem.QuantityDelivered = delivered
		}

		if err := tx.Model(delivery).UpdateColumns(map[string]interface{}{
			"is_confirmed": true,
			"confirmed_at": now,
			"confirmed_by": userId,
		}).Error; err != nil {
			return err
		}
		return models.RefreshFullyDelivered(tx, order)
	})
	if err != nil {
		return nil, err
	}
	confirmed := true
	delivery.IsConfirmed = &confirmed
	delivery.ConfirmedAt = &now
	delivery.ConfirmedBy = userId
	return delivery, nil
}
