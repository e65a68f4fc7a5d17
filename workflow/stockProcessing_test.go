package workflow_test

import (
	"context"
	"testing"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func postStorage(t *testing.T, req workflow.RecordRequest) (*models.StorageItemLedger, error) {
	t.Helper()
	var row *models.StorageItemLedger
	err := config.RunInTransaction(context.Background(), func(tx *gorm.DB) error {
		var err error
		row, err = workflow.RecordEntry[models.StorageItem, models.StorageItemLedger](tx, req)
		return err
	})
	return row, err
}

func storageSnapshot(t *testing.T, workspaceId, factoryId, itemId int) *models.StorageItem {
	t.Helper()
	snap, err := models.GetStockLevel[models.StorageItem, *models.StorageItem](context.Background(), workspaceId, factoryId, itemId)
	require.NoError(t, err)
	require.NotNil(t, snap)
	return snap
}

func TestRecordEntryWeightedAverage(t *testing.T) {
	setupTestDB(t)

	base := workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		PerformedBy: 1,
	}

	first := base
	first.Type = models.TxTypePurchaseOrder
	first.Quantity = decimal.NewFromInt(10)
	first.UnitCost = decimal.NewFromInt(100)
	row, err := postStorage(t, first)
	require.NoError(t, err)
	require.True(t, row.QtyBefore.IsZero())
	require.True(t, row.QtyAfter.Equal(decimal.NewFromInt(10)))
	require.Nil(t, row.AvgPriceBefore)
	require.NotNil(t, row.AvgPriceAfter)
	require.True(t, row.AvgPriceAfter.Equal(decimal.NewFromInt(100)))

	second := base
	second.Type = models.TxTypeManualAdd
	second.Quantity = decimal.NewFromInt(10)
	second.UnitCost = decimal.NewFromInt(200)
	row, err = postStorage(t, second)
	require.NoError(t, err)
	require.True(t, row.QtyAfter.Equal(decimal.NewFromInt(20)))
	// 10*100 + 10*200 over 20 units
	require.True(t, row.AvgPriceAfter.Equal(decimal.NewFromInt(150)))

	snap := storageSnapshot(t, 1, 10, 7)
	require.True(t, snap.Qty.Equal(decimal.NewFromInt(20)))
	require.True(t, snap.AvgPrice.Equal(decimal.NewFromInt(150)))
}

func TestRecordEntryOutflowIssuesAtAverage(t *testing.T) {
	setupTestDB(t)

	in := workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		Type:        models.TxTypePurchaseOrder,
		Quantity:    decimal.NewFromInt(20),
		UnitCost:    decimal.NewFromInt(150),
		PerformedBy: 1,
	}
	_, err := postStorage(t, in)
	require.NoError(t, err)

	out := in
	out.Type = models.TxTypeConsumption
	out.Quantity = decimal.NewFromInt(5)
	out.UnitCost = decimal.NewFromInt(999) // ignored: outflows issue at average
	row, err := postStorage(t, out)
	require.NoError(t, err)
	require.True(t, row.UnitCost.Equal(decimal.NewFromInt(150)))
	require.True(t, row.TotalCost.Equal(decimal.NewFromInt(750)))
	require.True(t, row.QtyAfter.Equal(decimal.NewFromInt(15)))
	// average survives the outflow
	require.True(t, row.AvgPriceAfter.Equal(decimal.NewFromInt(150)))
}

func TestRecordEntryInsufficientStock(t *testing.T) {
	setupTestDB(t)

	out := workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		Type:        models.TxTypeConsumption,
		Quantity:    decimal.NewFromInt(1),
		PerformedBy: 1,
	}
	_, err := postStorage(t, out)
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	// the rejected posting must leave no ledger row behind
	var count int64
	require.NoError(t, config.GetDB().Model(&models.StorageItemLedger{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRecordEntryRejectsNonPositiveQuantities(t *testing.T) {
	setupTestDB(t)

	base := workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		PerformedBy: 1,
	}

	// a negative inflow may not drive the snapshot below zero
	in := base
	in.Type = models.TxTypeManualAdd
	in.Quantity = decimal.NewFromInt(-5)
	in.UnitCost = decimal.NewFromInt(100)
	_, err := postStorage(t, in)
	require.ErrorIs(t, err, models.ErrInvalidQuantity)

	// a negative outflow may not conjure stock on an empty key
	out := base
	out.Type = models.TxTypeConsumption
	out.Quantity = decimal.NewFromInt(-8)
	_, err = postStorage(t, out)
	require.ErrorIs(t, err, models.ErrInvalidQuantity)

	zero := base
	zero.Type = models.TxTypePurchaseOrder
	zero.Quantity = decimal.Zero
	zero.UnitCost = decimal.NewFromInt(100)
	_, err = postStorage(t, zero)
	require.ErrorIs(t, err, models.ErrInvalidQuantity)

	adj := base
	adj.Type = models.TxTypeInventoryAdjustment
	adj.Quantity = decimal.NewFromInt(-1)
	_, err = postStorage(t, adj)
	require.ErrorIs(t, err, models.ErrInvalidQuantity)

	var count int64
	require.NoError(t, config.GetDB().Model(&models.StorageItemLedger{}).Count(&count).Error)
	require.Zero(t, count)
	snap, err := models.GetStockLevel[models.StorageItem, *models.StorageItem](context.Background(), 1, 10, 7)
	require.NoError(t, err)
	if snap != nil {
		require.True(t, snap.Qty.IsZero())
	}
}

func TestInventoryAdjustmentSetsAbsoluteQuantity(t *testing.T) {
	setupTestDB(t)

	in := workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		Type:        models.TxTypeManualAdd,
		Quantity:    decimal.NewFromInt(8),
		UnitCost:    decimal.NewFromInt(50),
		PerformedBy: 1,
	}
	_, err := postStorage(t, in)
	require.NoError(t, err)

	adjust := in
	adjust.Type = models.TxTypeInventoryAdjustment
	adjust.Quantity = decimal.NewFromInt(3)
	row, err := postStorage(t, adjust)
	require.NoError(t, err)
	require.True(t, row.QtyAfter.Equal(decimal.NewFromInt(3)))
	require.True(t, row.AvgPriceAfter.Equal(decimal.NewFromInt(50)))

	snap := storageSnapshot(t, 1, 10, 7)
	require.True(t, snap.Qty.Equal(decimal.NewFromInt(3)))
}

func TestCostAdjustmentReplacesAverage(t *testing.T) {
	setupTestDB(t)

	in := workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		Type:        models.TxTypeManualAdd,
		Quantity:    decimal.NewFromInt(4),
		UnitCost:    decimal.NewFromInt(50),
		PerformedBy: 1,
	}
	_, err := postStorage(t, in)
	require.NoError(t, err)

	adjust := in
	adjust.Type = models.TxTypeCostAdjustment
	adjust.UnitCost = decimal.NewFromInt(80)
	row, err := postStorage(t, adjust)
	require.NoError(t, err)
	require.True(t, row.QtyAfter.Equal(decimal.NewFromInt(4)))
	require.True(t, row.AvgPriceAfter.Equal(decimal.NewFromInt(80)))
	require.True(t, row.ValueAfter.Equal(decimal.NewFromInt(320)))
}

func TestVerifyKeyDetectsDrift(t *testing.T) {
	setupTestDB(t)

	in := workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		Type:        models.TxTypeManualAdd,
		Quantity:    decimal.NewFromInt(6),
		UnitCost:    decimal.NewFromInt(10),
		PerformedBy: 1,
	}
	_, err := postStorage(t, in)
	require.NoError(t, err)

	report, err := workflow.VerifyLedger(context.Background(), 1, workflow.LedgerStorage, 10, 7)
	require.NoError(t, err)
	require.True(t, report.InSync)
	require.Equal(t, 1, report.EntryCount)

	// corrupt the snapshot behind the ledger's back
	require.NoError(t, config.GetDB().Model(&models.StorageItem{}).
		Where("workspace_id = ? AND factory_id = ? AND item_id = ?", 1, 10, 7).
		UpdateColumn("qty", decimal.NewFromInt(99)).Error)

	report, err = workflow.VerifyLedger(context.Background(), 1, workflow.LedgerStorage, 10, 7)
	require.ErrorIs(t, err, models.ErrLedgerDrift)
	require.False(t, report.InSync)
	require.True(t, report.SnapshotQty.Equal(decimal.NewFromInt(99)))
	require.True(t, report.LedgerQty.Equal(decimal.NewFromInt(6)))
}

func TestReconcileWorkspaceSweepsAllLedgers(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, err := postStorage(t, workflow.RecordRequest{
		WorkspaceId: 1, LocationId: 10, ItemId: 7,
		Type: models.TxTypeManualAdd, Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(1), PerformedBy: 1,
	})
	require.NoError(t, err)

	_, err = workflow.RecordManualEntry(ctx, workflow.LedgerMachine, workflow.RecordRequest{
		WorkspaceId: 1, LocationId: 3, ItemId: 7,
		Type: models.TxTypeManualAdd, Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(1), PerformedBy: 1,
	})
	require.NoError(t, err)

	report, err := workflow.ReconcileWorkspace(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, report.KeysChecked)
	require.Empty(t, report.Drifts)
	require.Equal(t, 1, report.ByLedger[workflow.LedgerStorage])
	require.Equal(t, 1, report.ByLedger[workflow.LedgerMachine])
}
