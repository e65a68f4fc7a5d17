package workflow

import (
	"context"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"gorm.io/gorm"
)

// Status names that carry ledger side effects when crossed.
const (
	statusReceived  = "Received"
	statusCompleted = "Completed"
)

// AdvanceOrder moves an order one step forward on its workflow and runs
// any ledger side effects of the crossing in the same unit of work.
func AdvanceOrder(ctx context.Context, workspaceId int, orderId int, userId int) (*models.Order, error) {
	order, err := models.GetOrderWithItems(ctx, workspaceId, orderId)
	if err != nil {
		return nil, err
	}
	wf, err := models.GetWorkflowByType(ctx, workspaceId, order.TypeCode)
	if err != nil {
		return nil, err
	}
	next := wf.NextStatus(order.CurrentStatusId)
	if next == 0 {
		return nil, models.ErrWorkflowTerminal
	}

	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, workspaceId); err != nil {
			return err
		}
		defer ReleaseStockPostingLock(tx, workspaceId)

		if err := recheckOrderStatus(tx, order); err != nil {
			return err
		}
		if err := applyForwardEffects(tx, order, wf, next, userId); err != nil {
			return err
		}
		return setStatusColumn(tx, order, next, userId)
	})
	if err != nil {
		return nil, err
	}
	order.CurrentStatusId = next
	return order, nil
}

// RevertOrder moves an order back to an allowed earlier status. When the
// revert crosses a boundary whose side effects already ran, compensating
// ledger entries are emitted so stock and ledger stay truthful.
func RevertOrder(ctx context.Context, workspaceId int, orderId int, targetStatusId int, userId int) (*models.Order, error) {
	order, err := models.GetOrderWithItems(ctx, workspaceId, orderId)
	if err != nil {
		return nil, err
	}
	wf, err := models.GetWorkflowByType(ctx, workspaceId, order.TypeCode)
	if err != nil {
		return nil, err
	}
	if !wf.CanRevert(order.CurrentStatusId, targetStatusId) {
		return nil, models.ErrRevertNotAllowed
	}

	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, workspaceId); err != nil {
			return err
		}
		defer ReleaseStockPostingLock(tx, workspaceId)

		if err := recheckOrderStatus(tx, order); err != nil {
			return err
		}
		if err := applyRevertEffects(tx, order, wf, targetStatusId, userId); err != nil {
			return err
		}
		return setStatusColumn(tx, order, targetStatusId, userId)
	})
	if err != nil {
		return nil, err
	}
	order.CurrentStatusId = targetStatusId
	return order, nil
}

// SetOrderStatus jumps an order to any status on its workflow without
// side effects. Privileged repair operation, gated by the
// manage-order-status permission at the handler.
func SetOrderStatus(ctx context.Context, workspaceId int, orderId int, targetStatusId int, userId int) (*models.Order, error) {
	order, err := models.GetOrderWithItems(ctx, workspaceId, orderId)
	if err != nil {
		return nil, err
	}
	wf, err := models.GetWorkflowByType(ctx, workspaceId, order.TypeCode)
	if err != nil {
		return nil, err
	}
	if !wf.Contains(targetStatusId) {
		return nil, models.ErrRevertNotAllowed
	}
	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		return setStatusColumn(tx, order, targetStatusId, userId)
	})
	if err != nil {
		return nil, err
	}
	order.CurrentStatusId = targetStatusId
	return order, nil
}

// recheckOrderStatus re-reads the order under a row lock after the
// posting lock is held. The graph walk happened outside the
// transaction, so a concurrent transition surfaces here as a conflict
// instead of posting its side effects twice.
func recheckOrderStatus(tx *gorm.DB, order *models.Order) error {
	var currentStatusId int
	err := models.LockForUpdate(tx).
		Model(&models.Order{}).
		Where("id = ? AND workspace_id = ?", order.ID, order.WorkspaceId).
		Pluck("current_status_id", &currentStatusId).Error
	if err != nil {
		return err
	}
	if currentStatusId != order.CurrentStatusId {
		return models.ErrConflict
	}
	return nil
}

func setStatusColumn(tx *gorm.DB, order *models.Order, statusId int, userId int) error {
	return tx.Model(order).
		UpdateColumns(map[string]interface{}{"current_status_id": statusId, "updated_by": userId}).Error
}

// applyForwardEffects runs the side-effect table for one forward step.
func applyForwardEffects(tx *gorm.DB, order *models.Order, wf *models.OrderWorkflow, nextStatusId int, userId int) error {
	nextName, err := statusName(tx, order.WorkspaceId, nextStatusId)
	if err != nil {
		return err
	}
	switch {
	case isPurchaseType(order.TypeCode) && nextName == statusReceived:
		return postPurchaseReceipt(tx, order, userId)
	case isTransferType(order.TypeCode) && nextName == statusCompleted:
		return postTransferCompletion(tx, order, userId)
	}
	return nil
}

// applyRevertEffects emits compensating entries when the revert crosses
// back over a boundary that already posted.
func applyRevertEffects(tx *gorm.DB, order *models.Order, wf *models.OrderWorkflow, targetStatusId int, userId int) error {
	switch {
	case isPurchaseType(order.TypeCode):
		crossed, err := crossesBack(tx, order, wf, targetStatusId, statusReceived)
		if err != nil {
			return err
		}
		if crossed {
			return unwindPurchaseReceipt(tx, order, userId)
		}
	case isTransferType(order.TypeCode):
		crossed, err := crossesBack(tx, order, wf, targetStatusId, statusCompleted)
		if err != nil {
			return err
		}
		if crossed {
			return unwindTransferCompletion(tx, order, userId)
		}
	}
	return nil
}

// crossesBack reports whether moving from the order's current status to
// target passes backwards over the named boundary status.
func crossesBack(tx *gorm.DB, order *models.Order, wf *models.OrderWorkflow, targetStatusId int, boundaryName string) (bool, error) {
	boundaryIdx := -1
	for i, id := range wf.StatusSequence {
		name, err := statusName(tx, order.WorkspaceId, id)
		if err != nil {
			return false, err
		}
		if name == boundaryName {
			boundaryIdx = i
			break
		}
	}
	if boundaryIdx < 0 {
		return false, nil
	}
	currentIdx, targetIdx := -1, -1
	for i, id := range wf.StatusSequence {
		if id == order.CurrentStatusId {
			currentIdx = i
		}
		if id == targetStatusId {
			targetIdx = i
		}
	}
	return currentIdx >= boundaryIdx && targetIdx < boundaryIdx, nil
}

func statusName(tx *gorm.DB, workspaceId int, statusId int) (string, error) {
	var status models.Status
	if err := tx.Where("workspace_id = ? AND id = ?", workspaceId, statusId).
		First(&status).Error; err != nil {
		return "", err
	}
	return status.Name, nil
}

func isPurchaseType(code models.OrderTypeCode) bool {
	return code == models.OrderTypePFM || code == models.OrderTypePFS
}

func isTransferType(code models.OrderTypeCode) bool {
	return code == models.OrderTypeSTM || code == models.OrderTypeMTM
}

// postPurchaseReceipt books every line not already in storage into the
// factory store, then issues withdrawal-approved lines onward to the
// order's destination.
func postPurchaseReceipt(tx *gorm.DB, order *models.Order, userId int) error {
	for _, line := range order.Items {
		if line.InStorage != nil && *line.InStorage {
			continue
		}
		_, err := RecordEntry[models.StorageItem, models.StorageItemLedger](tx, RecordRequest{
			WorkspaceId: order.WorkspaceId,
			LocationId:  order.FactoryId,
			ItemId:      line.ItemId,
			Type:        models.TxTypePurchaseOrder,
			Quantity:    line.Qty,
			UnitCost:    line.UnitCost,
			SourceType:  "order",
			OrderId:     order.ID,
			PerformedBy: userId,
		})
		if err != nil {
			return err
		}

		withdraw := line.ApprovedStorageWithdrawal != nil && *line.ApprovedStorageWithdrawal
		if !withdraw {
			if err := tx.Model(line).UpdateColumn("in_storage", true).Error; err != nil {
				return err
			}
			continue
		}

		req := TransferRequest{
			WorkspaceId: order.WorkspaceId,
			FromId:      order.FactoryId,
			ItemId:      line.ItemId,
			Quantity:    line.Qty,
			OrderId:     order.ID,
			PerformedBy: userId,
		}
		switch {
		case order.MachineId != 0:
			req.ToId = order.MachineId
			if _, err := TransferStorageToMachine(tx, req); err != nil {
				return err
			}
		case order.ProjectComponentId != 0:
			req.ToId = order.ProjectComponentId
			if _, err := TransferStorageToComponent(tx, req); err != nil {
				return err
			}
		default:
			// no destination declared: the goods stay in storage
			if err := tx.Model(line).UpdateColumn("in_storage", true).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// unwindPurchaseReceipt reverses postPurchaseReceipt: withdrawn goods
// come back from the destination, then everything leaves storage again.
func unwindPurchaseReceipt(tx *gorm.DB, order *models.Order, userId int) error {
	for _, line := range order.Items {
		withdrawn := line.ApprovedStorageWithdrawal != nil && *line.ApprovedStorageWithdrawal
		if withdrawn {
			req := TransferRequest{
				WorkspaceId: order.WorkspaceId,
				ToId:        order.FactoryId,
				ItemId:      line.ItemId,
				Quantity:    line.Qty,
				OrderId:     order.ID,
				Notes:       "receipt revert",
				PerformedBy: userId,
			}
			switch {
			case order.MachineId != 0:
				req.FromId = order.MachineId
				if _, err := Transfer[
					models.MachineItem, models.MachineItemLedger,
					models.StorageItem, models.StorageItemLedger,
				](tx, req, machineDesc(order.MachineId), storageDesc(order.FactoryId)); err != nil {
					return err
				}
			case order.ProjectComponentId != 0:
				req.FromId = order.ProjectComponentId
				if _, err := Transfer[
					models.ProjectComponentItem, models.ProjectComponentItemLedger,
					models.StorageItem, models.StorageItemLedger,
				](tx, req, componentDesc(order.ProjectComponentId), storageDesc(order.FactoryId)); err != nil {
					return err
				}
			}
		}

		_, err := RecordEntry[models.StorageItem, models.StorageItemLedger](tx, RecordRequest{
			WorkspaceId: order.WorkspaceId,
			LocationId:  order.FactoryId,
			ItemId:      line.ItemId,
			Type:        models.TxTypeConsumption,
			Quantity:    line.Qty,
			SourceType:  "order_revert",
			OrderId:     order.ID,
			Notes:       "receipt revert",
			PerformedBy: userId,
		})
		if err != nil {
			return err
		}
		if err := tx.Model(line).UpdateColumn("in_storage", false).Error; err != nil {
			return err
		}
	}
	return nil
}

// postTransferCompletion emits the paired transfer rows for STM and MTM
// orders.
func postTransferCompletion(tx *gorm.DB, order *models.Order, userId int) error {
	for _, line := range order.Items {
		req := TransferRequest{
			WorkspaceId: order.WorkspaceId,
			ItemId:      line.ItemId,
			Quantity:    line.Qty,
			OrderId:     order.ID,
			PerformedBy: userId,
		}
		switch order.TypeCode {
		case models.OrderTypeSTM:
			req.FromId = order.SourceFactoryId
			req.ToId = order.MachineId
			if _, err := TransferStorageToMachine(tx, req); err != nil {
				return err
			}
		case models.OrderTypeMTM:
			req.FromId = order.SourceMachineId
			req.ToId = order.MachineId
			if _, err := TransferMachineToMachine(tx, req); err != nil {
				return err
			}
		}
	}
	return nil
}

// unwindTransferCompletion runs the reverse transfers.
func unwindTransferCompletion(tx *gorm.DB, order *models.Order, userId int) error {
	for _, line := range order.Items {
		req := TransferRequest{
			WorkspaceId: order.WorkspaceId,
			ItemId:      line.ItemId,
			Quantity:    line.Qty,
			OrderId:     order.ID,
			Notes:       "transfer revert",
			PerformedBy: userId,
		}
		switch order.TypeCode {
		case models.OrderTypeSTM:
			req.FromId = order.MachineId
			req.ToId = order.SourceFactoryId
			if _, err := Transfer[
				models.MachineItem, models.MachineItemLedger,
				models.StorageItem, models.StorageItemLedger,
			](tx, req, machineDesc(order.MachineId), storageDesc(order.SourceFactoryId)); err != nil {
				return err
			}
		case models.OrderTypeMTM:
			req.FromId = order.MachineId
			req.ToId = order.SourceMachineId
			if _, err := TransferMachineToMachine(tx, req); err != nil {
				return err
			}
		}
	}
	return nil
}
