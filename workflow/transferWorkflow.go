package workflow

import (
	"fmt"

	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransferRequest moves quantity between two locations. Source and
// destination may live in the same ledger (factory to factory storage)
// or in two different ledgers (storage to machine).
type TransferRequest struct {
	WorkspaceId int
	FromId      int
	ToId        int
	ItemId      int
	Quantity    decimal.Decimal
	OrderId     int
	Notes       string
	PerformedBy int
}

// TransferResult carries the matched pair. Out and In share SourceId.
type TransferResult struct {
	SourceId string
	OutEntry *models.LedgerEntry
	InEntry  *models.LedgerEntry
}

// Transfer emits exactly two ledger rows in the caller's transaction:
// transfer_out on the source and transfer_in on the destination, sharing
// one generated source id. The inflow is costed at the source's average
// price before the move, so cost travels with the goods.
func Transfer[SA any, LA any, SB any, LB any, PSA snapPtr[SA], PLA ledgerPtr[LA], PSB snapPtr[SB], PLB ledgerPtr[LB]](
	tx *gorm.DB, req TransferRequest, fromDesc string, toDesc string,
) (*TransferResult, error) {
	if !req.Quantity.IsPositive() {
		return nil, models.ErrInvalidQuantity
	}
	sourceId := uuid.New().String()

	outRow, err := RecordEntry[SA, LA, PSA, PLA](tx, RecordRequest{
		WorkspaceId:  req.WorkspaceId,
		LocationId:   req.FromId,
		ItemId:       req.ItemId,
		Type:         models.TxTypeTransferOut,
		Quantity:     req.Quantity,
		SourceType:   "transfer",
		SourceId:     sourceId,
		OrderId:      req.OrderId,
		TransferFrom: fromDesc,
		TransferTo:   toDesc,
		Notes:        req.Notes,
		PerformedBy:  req.PerformedBy,
	})
	if err != nil {
		return nil, err
	}
	out := PLA(outRow).Entry()

	// issued cost of the outflow becomes the inflow's unit cost
	inRow, err := RecordEntry[SB, LB, PSB, PLB](tx, RecordRequest{
		WorkspaceId:  req.WorkspaceId,
		LocationId:   req.ToId,
		ItemId:       req.ItemId,
		Type:         models.TxTypeTransferIn,
		Quantity:     req.Quantity,
		UnitCost:     out.UnitCost,
		SourceType:   "transfer",
		SourceId:     sourceId,
		OrderId:      req.OrderId,
		TransferFrom: fromDesc,
		TransferTo:   toDesc,
		Notes:        req.Notes,
		PerformedBy:  req.PerformedBy,
	})
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		SourceId: sourceId,
		OutEntry: out,
		InEntry:  PLB(inRow).Entry(),
	}, nil
}

// TransferStorageToStorage moves stock between two factory stores.
func TransferStorageToStorage(tx *gorm.DB, req TransferRequest) (*TransferResult, error) {
	return Transfer[
		models.StorageItem, models.StorageItemLedger,
		models.StorageItem, models.StorageItemLedger,
	](tx, req, storageDesc(req.FromId), storageDesc(req.ToId))
}

// TransferStorageToMachine issues parts from the store onto a machine.
func TransferStorageToMachine(tx *gorm.DB, req TransferRequest) (*TransferResult, error) {
	return Transfer[
		models.StorageItem, models.StorageItemLedger,
		models.MachineItem, models.MachineItemLedger,
	](tx, req, storageDesc(req.FromId), machineDesc(req.ToId))
}

// TransferMachineToMachine moves parts between machines.
func TransferMachineToMachine(tx *gorm.DB, req TransferRequest) (*TransferResult, error) {
	return Transfer[
		models.MachineItem, models.MachineItemLedger,
		models.MachineItem, models.MachineItemLedger,
	](tx, req, machineDesc(req.FromId), machineDesc(req.ToId))
}

// TransferStorageToComponent issues parts into a project component.
func TransferStorageToComponent(tx *gorm.DB, req TransferRequest) (*TransferResult, error) {
	return Transfer[
		models.StorageItem, models.StorageItemLedger,
		models.ProjectComponentItem, models.ProjectComponentItemLedger,
	](tx, req, storageDesc(req.FromId), componentDesc(req.ToId))
}

// TransferStorageToDamaged writes stock off into quarantine.
func TransferStorageToDamaged(tx *gorm.DB, req TransferRequest) (*TransferResult, error) {
	return Transfer[
		models.StorageItem, models.StorageItemLedger,
		models.DamagedItem, models.DamagedItemLedger,
	](tx, req, storageDesc(req.FromId), damagedDesc(req.ToId))
}

func storageDesc(factoryId int) string { return fmt.Sprintf("storage:factory:%d", factoryId) }
func machineDesc(machineId int) string { return fmt.Sprintf("machine:%d", machineId) }
func componentDesc(componentId int) string { return fmt.Sprintf("project-component:%d", componentId) }
func damagedDesc(factoryId int) string { return fmt.Sprintf("damaged:factory:%d", factoryId) }
