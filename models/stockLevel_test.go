package models_test

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedLedgerRow(t *testing.T, workspaceId int) *models.StorageItemLedger {
	t.Helper()
	row := &models.StorageItemLedger{
		LedgerEntry: models.LedgerEntry{
			WorkspaceId:     workspaceId,
			ItemId:          7,
			TransactionType: models.TxTypeManualAdd,
			Quantity:        decimal.NewFromInt(5),
			UnitCost:        decimal.NewFromInt(10),
			TotalCost:       decimal.NewFromInt(50),
			QtyAfter:        decimal.NewFromInt(5),
			ValueAfter:      decimal.NewFromInt(50),
			PerformedBy:     1,
			PerformedAt:     time.Now(),
		},
		FactoryId: 10,
	}
	err := config.GetDB().WithContext(context.Background()).Create(row).Error
	require.NoError(t, err)
	return row
}

func TestLedgerRowsAreImmutable(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	row := seedLedgerRow(t, 1)

	err := config.GetDB().WithContext(ctx).Model(row).
		Update("quantity", decimal.NewFromInt(99)).Error
	require.ErrorIs(t, err, models.ErrImmutableLedger)

	err = config.GetDB().WithContext(ctx).Delete(row).Error
	require.ErrorIs(t, err, models.ErrImmutableLedger)
}

func TestLedgerNotesStayEditable(t *testing.T) {
	setupTestDB(t)
	row := seedLedgerRow(t, 1)

	err := models.UpdateLedgerNotes[models.StorageItemLedger](context.Background(), 1, row.ID, "counted twice")
	require.NoError(t, err)

	var reloaded models.StorageItemLedger
	err = config.GetDB().WithContext(context.Background()).First(&reloaded, row.ID).Error
	require.NoError(t, err)
	require.Equal(t, "counted twice", reloaded.Notes)
	require.True(t, reloaded.Quantity.Equal(decimal.NewFromInt(5)))
}
