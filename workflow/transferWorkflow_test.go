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

func TestTransferPairsEntriesAndCarriesCost(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, err := postStorage(t, workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		Type:        models.TxTypePurchaseOrder,
		Quantity:    decimal.NewFromInt(10),
		UnitCost:    decimal.NewFromInt(25),
		PerformedBy: 1,
	})
	require.NoError(t, err)

	result, err := workflow.RunTransfer(ctx, workflow.TransferRequest{
		WorkspaceId: 1,
		FromId:      10,
		ToId:        11,
		ItemId:      7,
		Quantity:    decimal.NewFromInt(4),
		PerformedBy: 1,
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.SourceId)
	require.Equal(t, result.SourceId, result.OutEntry.SourceId)
	require.Equal(t, result.SourceId, result.InEntry.SourceId)
	require.Equal(t, models.TxTypeTransferOut, result.OutEntry.TransactionType)
	require.Equal(t, models.TxTypeTransferIn, result.InEntry.TransactionType)

	// source average cost travels with the goods
	require.True(t, result.OutEntry.UnitCost.Equal(decimal.NewFromInt(25)))
	require.True(t, result.InEntry.UnitCost.Equal(decimal.NewFromInt(25)))

	from := storageSnapshot(t, 1, 10, 7)
	to := storageSnapshot(t, 1, 11, 7)
	require.True(t, from.Qty.Equal(decimal.NewFromInt(6)))
	require.True(t, to.Qty.Equal(decimal.NewFromInt(4)))
	require.True(t, to.AvgPrice.Equal(decimal.NewFromInt(25)))
}

func TestTransferRejectsOverdraw(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, err := postStorage(t, workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		Type:        models.TxTypeManualAdd,
		Quantity:    decimal.NewFromInt(2),
		UnitCost:    decimal.NewFromInt(5),
		PerformedBy: 1,
	})
	require.NoError(t, err)

	_, err = workflow.RunTransfer(ctx, workflow.TransferRequest{
		WorkspaceId: 1,
		FromId:      10,
		ToId:        11,
		ItemId:      7,
		Quantity:    decimal.NewFromInt(3),
		PerformedBy: 1,
	})
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	// the failed transfer rolls back whole: no orphan out row
	snap := storageSnapshot(t, 1, 10, 7)
	require.True(t, snap.Qty.Equal(decimal.NewFromInt(2)))

	var rows int64
	err = config.GetDB().WithContext(ctx).Model(&models.StorageItemLedger{}).Count(&rows).Error
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
}

func TestTransferRejectsNonPositiveQuantity(t *testing.T) {
	setupTestDB(t)

	_, err := workflow.RunTransfer(context.Background(), workflow.TransferRequest{
		WorkspaceId: 1,
		FromId:      10,
		ToId:        11,
		ItemId:      7,
		Quantity:    decimal.Zero,
		PerformedBy: 1,
	})
	require.ErrorIs(t, err, models.ErrInvalidQuantity)
}

func TestTransferAcrossLedgers(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, err := postStorage(t, workflow.RecordRequest{
		WorkspaceId: 1,
		LocationId:  10,
		ItemId:      7,
		Type:        models.TxTypeManualAdd,
		Quantity:    decimal.NewFromInt(5),
		UnitCost:    decimal.NewFromInt(40),
		PerformedBy: 1,
	})
	require.NoError(t, err)

	err = config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		_, err := workflow.TransferStorageToMachine(tx, workflow.TransferRequest{
			WorkspaceId: 1,
			FromId:      10,
			ToId:        3,
			ItemId:      7,
			Quantity:    decimal.NewFromInt(2),
			PerformedBy: 1,
		})
		return err
	})
	require.NoError(t, err)

	machineSnap, err := models.GetStockLevel[models.MachineItem, *models.MachineItem](ctx, 1, 3, 7)
	require.NoError(t, err)
	require.NotNil(t, machineSnap)
	require.True(t, machineSnap.Qty.Equal(decimal.NewFromInt(2)))
	require.True(t, machineSnap.AvgPrice.Equal(decimal.NewFromInt(40)))

	from := storageSnapshot(t, 1, 10, 7)
	require.True(t, from.Qty.Equal(decimal.NewFromInt(3)))
}
