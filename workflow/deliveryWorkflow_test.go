package workflow_test

import (
	"testing"

	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type salesFixture struct {
	*orderFixture
	account *models.Account
	order   *models.SalesOrder
}

func newSalesFixture(t *testing.T, ordered int64) *salesFixture {
	t.Helper()
	f := newOrderFixture(t)

	account, err := models.CreateAccount(f.ctx, f.workspaceId, f.userId, &models.NewAccount{Name: "Shwe Trading"})
	require.NoError(t, err)

	// finished goods on hand at the factory
	_, err = workflow.RecordManualEntry(f.ctx, workflow.LedgerInventory, workflow.RecordRequest{
		WorkspaceId: f.workspaceId,
		LocationId:  f.factory.ID,
		ItemId:      f.item.ID,
		Type:        models.TxTypeManualAdd,
		Quantity:    decimal.NewFromInt(100),
		UnitCost:    decimal.NewFromInt(8),
		PerformedBy: f.userId,
	})
	require.NoError(t, err)

	order, err := models.CreateSalesOrder(f.ctx, f.workspaceId, f.userId, &models.NewSalesOrder{
		AccountId: account.ID,
		FactoryId: f.factory.ID,
		Items: []*models.NewSalesOrderItem{{
			ItemId:          f.item.ID,
			QuantityOrdered: decimal.NewFromInt(ordered),
			UnitPrice:       decimal.NewFromInt(12),
		}},
	})
	require.NoError(t, err)

	return &salesFixture{orderFixture: f, account: account, order: order}
}

func (f *salesFixture) stageDelivery(t *testing.T, qty int64) *models.SalesDelivery {
	t.Helper()
	delivery, err := models.CreateSalesDelivery(f.ctx, f.workspaceId, f.userId, &models.NewSalesDelivery{
		SalesOrderId: f.order.ID,
		Items: []*models.NewSalesDeliveryItem{{
			SalesOrderItemId:  f.order.Items[0].ID,
			QuantityDelivered: decimal.NewFromInt(qty),
		}},
	})
	require.NoError(t, err)
	return delivery
}

func TestConfirmDeliveryConsumesInventory(t *testing.T) {
	setupTestDB(t)
	f := newSalesFixture(t, 10)

	delivery := f.stageDelivery(t, 6)
	confirmed, err := workflow.ConfirmDelivery(f.ctx, f.workspaceId, delivery.ID, f.userId)
	require.NoError(t, err)
	require.True(t, *confirmed.IsConfirmed)
	require.NotNil(t, confirmed.ConfirmedAt)

	snap, err := models.GetStockLevel[models.InventoryItem, *models.InventoryItem](f.ctx, f.workspaceId, f.factory.ID, f.item.ID)
	require.NoError(t, err)
	require.True(t, snap.Qty.Equal(decimal.NewFromInt(94)))

	order, err := models.GetSalesOrderWithItems(f.ctx, f.workspaceId, f.order.ID)
	require.NoError(t, err)
	require.True(t, order.Items[0].QuantityDelivered.Equal(decimal.NewFromInt(6)))
	require.False(t, *order.IsFullyDelivered)
}

func TestConfirmDeliveryMarksOrderFullyDelivered(t *testing.T) {
	setupTestDB(t)
	f := newSalesFixture(t, 10)

	first := f.stageDelivery(t, 6)
	_, err := workflow.ConfirmDelivery(f.ctx, f.workspaceId, first.ID, f.userId)
	require.NoError(t, err)

	second := f.stageDelivery(t, 4)
	_, err = workflow.ConfirmDelivery(f.ctx, f.workspaceId, second.ID, f.userId)
	require.NoError(t, err)

	order, err := models.GetSalesOrderWithItems(f.ctx, f.workspaceId, f.order.ID)
	require.NoError(t, err)
	require.True(t, *order.IsFullyDelivered)
}

func TestConfirmDeliveryRejectsOverDelivery(t *testing.T) {
	setupTestDB(t)
	f := newSalesFixture(t, 10)

	// both staged while nothing was delivered yet, so staging passes;
	// the second confirmation is what must fail
	first := f.stageDelivery(t, 10)
	second := f.stageDelivery(t, 10)

	_, err := workflow.ConfirmDelivery(f.ctx, f.workspaceId, first.ID, f.userId)
	require.NoError(t, err)

	_, err = workflow.ConfirmDelivery(f.ctx, f.workspaceId, second.ID, f.userId)
	require.ErrorIs(t, err, models.ErrDeliveryExceeded)

	// the rejected confirmation left the ledger untouched
	snap, err := models.GetStockLevel[models.InventoryItem, *models.InventoryItem](f.ctx, f.workspaceId, f.factory.ID, f.item.ID)
	require.NoError(t, err)
	require.True(t, snap.Qty.Equal(decimal.NewFromInt(90)))
}

func TestConfirmDeliveryTwiceConflicts(t *testing.T) {
	setupTestDB(t)
	f := newSalesFixture(t, 10)

	delivery := f.stageDelivery(t, 5)
	_, err := workflow.ConfirmDelivery(f.ctx, f.workspaceId, delivery.ID, f.userId)
	require.NoError(t, err)

	_, err = workflow.ConfirmDelivery(f.ctx, f.workspaceId, delivery.ID, f.userId)
	require.ErrorIs(t, err, models.ErrConflict)
}
