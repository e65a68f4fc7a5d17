package workflow

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ActualQuantity reports what one batch line really consumed or
// produced. Lines not listed fall back to their expected quantity.
type ActualQuantity struct {
	BatchItemId int             `json:"batch_item_id" binding:"required"`
	ActualQty   decimal.Decimal `json:"actual_qty"`
}

// CompleteBatch finishes a production run: inputs leave the factory
// store at issued cost, outputs and byproducts land in finished-goods
// inventory costed from the consumed value, waste is recorded but books
// no stock. The batch flips to completed in the same unit of work.
func CompleteBatch(ctx context.Context, workspaceId int, batchId int, userId int, actuals []*ActualQuantity) (*models.ProductionBatch, error) {
	batch, err := models.GetBatchWithItems(ctx, workspaceId, batchId)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.BatchStatusInProgress && batch.Status != models.BatchStatusDraft {
		return nil, models.ErrConflict
	}

	actualById := make(map[int]decimal.Decimal, len(actuals))
	for _, a := range actuals {
		actualById[a.BatchItemId] = a.ActualQty
	}
	quantityOf := func(item *models.ProductionBatchItem) decimal.Decimal {
		if qty, ok := actualById[item.ID]; ok {
			return qty
		}
		return item.ExpectedQty
	}

	now := time.Now()
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, workspaceId); err != nil {
			return err
		}
		defer ReleaseStockPostingLock(tx, workspaceId)

		// consume inputs first so the output cost reflects what went in
		consumedValue := decimal.Zero
		outputQty := decimal.Zero
		for _, item := range batch.Items {
			if item.Role != models.FormulaRoleInput {
				if item.Role == models.FormulaRoleOutput || item.Role == models.FormulaRoleByproduct {
					outputQty = outputQty.Add(quantityOf(item))
				}
				continue
			}
			qty := quantityOf(item)
			row, err := RecordEntry[models.StorageItem, models.StorageItemLedger](tx, RecordRequest{
				WorkspaceId: workspaceId,
				LocationId:  batch.FactoryId,
				ItemId:      item.ItemId,
				Type:        models.TxTypeConsumption,
				Quantity:    qty,
				SourceType:  "production_batch",
				PerformedBy: userId,
			})
			if err != nil {
				return err
			}
			consumedValue = consumedValue.Add(row.TotalCost)
			if err := recordActual(tx, item, qty); err != nil {
				return err
			}
		}

		unitCost := decimal.Zero
		if outputQty.IsPositive() {
			unitCost = consumedValue.DivRound(outputQty, 4)
		}
		for _, item := range batch.Items {
			qty := quantityOf(item)
			switch item.Role {
			case models.FormulaRoleOutput, models.FormulaRoleByproduct:
				_, err := RecordEntry[models.InventoryItem, models.InventoryItemLedger](tx, RecordRequest{
					WorkspaceId: workspaceId,
					LocationId:  batch.FactoryId,
					ItemId:      item.ItemId,
					Type:        models.TxTypeManualAdd,
					Quantity:    qty,
					UnitCost:    unitCost,
					SourceType:  "production_batch",
					PerformedBy: userId,
				})
				if err != nil {
					return err
				}
				if err := recordActual(tx, item, qty); err != nil {
					return err
				}
			case models.FormulaRoleWaste:
				if err := recordActual(tx, item, qty); err != nil {
					return err
				}
			}
		}

		return tx.Model(batch).UpdateColumns(map[string]interface{}{
			"status":       models.BatchStatusCompleted,
			"completed_at": now,
			"completed_by": userId,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	batch.Status = models.BatchStatusCompleted
	batch.CompletedAt = &now
	batch.CompletedBy = userId
	return batch, nil
}

func recordActual(tx *gorm.DB, item *models.ProductionBatchItem, qty decimal.Decimal) error {
	item.ActualQty = qty
	return tx.Model(item).UpdateColumn("actual_qty", qty).Error
}
