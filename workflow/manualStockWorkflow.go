package workflow

import (
	"context"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"gorm.io/gorm"
)

// manualTypes are the postings a user may book directly, outside any
// order workflow.
var manualTypes = map[models.LedgerTransactionType]bool{
	models.TxTypeManualAdd:           true,
	models.TxTypeConsumption:         true,
	models.TxTypeDamaged:             true,
	models.TxTypeInventoryAdjustment: true,
	models.TxTypeCostAdjustment:      true,
}

// RecordManualEntry books one hand-entered posting against the chosen
// ledger in its own unit of work.
func RecordManualEntry(ctx context.Context, kind LedgerKind, req RecordRequest) (*models.LedgerEntry, error) {
	if !manualTypes[req.Type] {
		return nil, models.ErrConflict
	}

	var entry *models.LedgerEntry
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, req.WorkspaceId); err != nil {
			return err
		}
		defer ReleaseStockPostingLock(tx, req.WorkspaceId)

		switch kind {
		case LedgerStorage:
			row, err := RecordEntry[models.StorageItem, models.StorageItemLedger](tx, req)
			if err != nil {
				return err
			}
			entry = &row.LedgerEntry
		case LedgerMachine:
			row, err := RecordEntry[models.MachineItem, models.MachineItemLedger](tx, req)
			if err != nil {
				return err
			}
			entry = &row.LedgerEntry
		case LedgerDamaged:
			row, err := RecordEntry[models.DamagedItem, models.DamagedItemLedger](tx, req)
			if err != nil {
				return err
			}
			entry = &row.LedgerEntry
		case LedgerComponent:
			row, err := RecordEntry[models.ProjectComponentItem, models.ProjectComponentItemLedger](tx, req)
			if err != nil {
				return err
			}
			entry = &row.LedgerEntry
		case LedgerInventory:
			row, err := RecordEntry[models.InventoryItem, models.InventoryItemLedger](tx, req)
			if err != nil {
				return err
			}
			entry = &row.LedgerEntry
		default:
			return models.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RunTransfer wraps a storage-to-storage move in its own unit of work.
// Used by the manual transfer endpoint; order-driven transfers run
// inside the status workflow instead.
func RunTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	var result *TransferResult
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, req.WorkspaceId); err != nil {
			return err
		}
		defer ReleaseStockPostingLock(tx, req.WorkspaceId)

		var err error
		result, err = TransferStorageToStorage(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
