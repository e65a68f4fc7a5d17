package workflow

import (
	"context"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"gorm.io/gorm"
)

// LedgerKind names one of the five snapshot/ledger pairs on the wire.
type LedgerKind string

const (
	LedgerStorage   LedgerKind = "storage"
	LedgerMachine   LedgerKind = "machine"
	LedgerDamaged   LedgerKind = "damaged"
	LedgerComponent LedgerKind = "project-component"
	LedgerInventory LedgerKind = "inventory"
)

// ReconciliationReport is the outcome of replaying every key of one or
// more ledgers against their snapshots.
type ReconciliationReport struct {
	WorkspaceId int                `json:"workspace_id"`
	KeysChecked int                `json:"keys_checked"`
	Drifts      []*VerifyReport    `json:"drifts"`
	ByLedger    map[LedgerKind]int `json:"by_ledger"`
}

// VerifyLedger replays one ledger kind for a single key.
func VerifyLedger(ctx context.Context, workspaceId int, kind LedgerKind, locationId int, itemId int) (*VerifyReport, error) {
	db := config.GetDB().WithContext(ctx)
	switch kind {
	case LedgerStorage:
		return VerifyKey[models.StorageItem, models.StorageItemLedger](db, workspaceId, locationId, itemId)
	case LedgerMachine:
		return VerifyKey[models.MachineItem, models.MachineItemLedger](db, workspaceId, locationId, itemId)
	case LedgerDamaged:
		return VerifyKey[models.DamagedItem, models.DamagedItemLedger](db, workspaceId, locationId, itemId)
	case LedgerComponent:
		return VerifyKey[models.ProjectComponentItem, models.ProjectComponentItemLedger](db, workspaceId, locationId, itemId)
	case LedgerInventory:
		return VerifyKey[models.InventoryItem, models.InventoryItemLedger](db, workspaceId, locationId, itemId)
	}
	return nil, models.ErrNotFound
}

// ReconcileWorkspace sweeps every snapshot key in the workspace across
// all five ledgers. Diagnostic: drifts are reported, never repaired.
func ReconcileWorkspace(ctx context.Context, workspaceId int) (*ReconciliationReport, error) {
	db := config.GetDB().WithContext(ctx)
	report := &ReconciliationReport{
		WorkspaceId: workspaceId,
		Drifts:      make([]*VerifyReport, 0),
		ByLedger:    make(map[LedgerKind]int),
	}

	if err := reconcileKind[models.StorageItem, models.StorageItemLedger](db, workspaceId, LedgerStorage, report); err != nil {
		return nil, err
	}
	if err := reconcileKind[models.MachineItem, models.MachineItemLedger](db, workspaceId, LedgerMachine, report); err != nil {
		return nil, err
	}
	if err := reconcileKind[models.DamagedItem, models.DamagedItemLedger](db, workspaceId, LedgerDamaged, report); err != nil {
		return nil, err
	}
	if err := reconcileKind[models.ProjectComponentItem, models.ProjectComponentItemLedger](db, workspaceId, LedgerComponent, report); err != nil {
		return nil, err
	}
	if err := reconcileKind[models.InventoryItem, models.InventoryItemLedger](db, workspaceId, LedgerInventory, report); err != nil {
		return nil, err
	}
	return report, nil
}

func reconcileKind[S any, L any, PS snapPtr[S], PL ledgerPtr[L]](db *gorm.DB, workspaceId int, kind LedgerKind, report *ReconciliationReport) error {
	var snaps []*S
	var probe S
	if err := db.Model(&probe).Where("workspace_id = ?", workspaceId).Find(&snaps).Error; err != nil {
		return err
	}
	for _, snap := range snaps {
		ps := PS(snap)
		result, err := VerifyKey[S, L, PS, PL](db, workspaceId, ps.LocationId(), ps.Stock().ItemId)
		if err != nil && err != models.ErrLedgerDrift {
			return err
		}
		report.KeysChecked++
		report.ByLedger[kind]++
		if result != nil && !result.InSync {
			report.Drifts = append(report.Drifts, result)
		}
	}
	return nil
}
