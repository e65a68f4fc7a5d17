package workflow_test

import (
	"testing"

	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type batchFixture struct {
	*orderFixture
	input  *models.Item
	output *models.Item
	batch  *models.ProductionBatch
}

// newBatchFixture seeds 20 units of raw material at cost 10 and stages a
// batch expecting 10 in, 4 out.
func newBatchFixture(t *testing.T) *batchFixture {
	t.Helper()
	f := newOrderFixture(t)

	output, err := models.CreateItem(f.ctx, f.workspaceId, f.userId, &models.NewItem{Name: "Finished Good", Sku: "FG-01"})
	require.NoError(t, err)

	_, err = workflow.RecordManualEntry(f.ctx, workflow.LedgerStorage, workflow.RecordRequest{
		WorkspaceId: f.workspaceId,
		LocationId:  f.factory.ID,
		ItemId:      f.item.ID,
		Type:        models.TxTypeManualAdd,
		Quantity:    decimal.NewFromInt(20),
		UnitCost:    decimal.NewFromInt(10),
		PerformedBy: f.userId,
	})
	require.NoError(t, err)

	formula, err := models.CreateProductionFormula(f.ctx, f.workspaceId, f.userId, &models.NewProductionFormula{
		Name: "Standard Mix",
		Items: []*models.NewProductionFormulaItem{
			{ItemId: f.item.ID, Role: models.FormulaRoleInput, Quantity: decimal.NewFromInt(10)},
			{ItemId: output.ID, Role: models.FormulaRoleOutput, Quantity: decimal.NewFromInt(4)},
		},
	})
	require.NoError(t, err)

	batch, err := models.CreateProductionBatch(f.ctx, f.workspaceId, f.userId, &models.NewProductionBatch{
		FormulaId: formula.ID,
		FactoryId: f.factory.ID,
	})
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusDraft, batch.Status)

	return &batchFixture{orderFixture: f, input: f.item, output: output, batch: batch}
}

func TestCompleteBatchCostsOutputFromInputs(t *testing.T) {
	setupTestDB(t)
	f := newBatchFixture(t)

	_, err := models.StartBatch(f.ctx, f.workspaceId, f.batch.ID)
	require.NoError(t, err)

	done, err := workflow.CompleteBatch(f.ctx, f.workspaceId, f.batch.ID, f.userId, nil)
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	// 10 consumed at 10 = 100 in, over 4 out = 25 per unit
	raw := storageSnapshot(t, f.workspaceId, f.factory.ID, f.input.ID)
	require.True(t, raw.Qty.Equal(decimal.NewFromInt(10)))

	fg, err := models.GetStockLevel[models.InventoryItem, *models.InventoryItem](f.ctx, f.workspaceId, f.factory.ID, f.output.ID)
	require.NoError(t, err)
	require.NotNil(t, fg)
	require.True(t, fg.Qty.Equal(decimal.NewFromInt(4)))
	require.True(t, fg.AvgPrice.Equal(decimal.NewFromInt(25)))
}

func TestCompleteBatchHonorsActualQuantities(t *testing.T) {
	setupTestDB(t)
	f := newBatchFixture(t)

	var inputLine, outputLine *models.ProductionBatchItem
	for _, item := range f.batch.Items {
		switch item.Role {
		case models.FormulaRoleInput:
			inputLine = item
		case models.FormulaRoleOutput:
			outputLine = item
		}
	}
	require.NotNil(t, inputLine)
	require.NotNil(t, outputLine)

	_, err := workflow.CompleteBatch(f.ctx, f.workspaceId, f.batch.ID, f.userId, []*workflow.ActualQuantity{
		{BatchItemId: inputLine.ID, ActualQty: decimal.NewFromInt(12)},
		{BatchItemId: outputLine.ID, ActualQty: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)

	// 12 consumed at 10 = 120 in, over 5 out = 24 per unit
	fg, err := models.GetStockLevel[models.InventoryItem, *models.InventoryItem](f.ctx, f.workspaceId, f.factory.ID, f.output.ID)
	require.NoError(t, err)
	require.True(t, fg.Qty.Equal(decimal.NewFromInt(5)))
	require.True(t, fg.AvgPrice.Equal(decimal.NewFromInt(24)))

	reloaded, err := models.GetBatchWithItems(f.ctx, f.workspaceId, f.batch.ID)
	require.NoError(t, err)
	for _, item := range reloaded.Items {
		if item.ID == inputLine.ID {
			require.True(t, item.ActualQty.Equal(decimal.NewFromInt(12)))
		}
	}
}

func TestCompleteBatchFailsOnInsufficientRawMaterial(t *testing.T) {
	setupTestDB(t)
	f := newBatchFixture(t)

	var inputLine *models.ProductionBatchItem
	for _, item := range f.batch.Items {
		if item.Role == models.FormulaRoleInput {
			inputLine = item
		}
	}

	_, err := workflow.CompleteBatch(f.ctx, f.workspaceId, f.batch.ID, f.userId, []*workflow.ActualQuantity{
		{BatchItemId: inputLine.ID, ActualQty: decimal.NewFromInt(21)},
	})
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	reloaded, err := models.GetBatchWithItems(f.ctx, f.workspaceId, f.batch.ID)
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusDraft, reloaded.Status)
}

func TestCompleteBatchRejectsFinishedBatch(t *testing.T) {
	setupTestDB(t)
	f := newBatchFixture(t)

	_, err := workflow.CompleteBatch(f.ctx, f.workspaceId, f.batch.ID, f.userId, nil)
	require.NoError(t, err)

	_, err = workflow.CompleteBatch(f.ctx, f.workspaceId, f.batch.ID, f.userId, nil)
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestCancelBatchOnlyFromOpenStates(t *testing.T) {
	setupTestDB(t)
	f := newBatchFixture(t)

	require.NoError(t, models.CancelBatch(f.ctx, f.workspaceId, f.batch.ID))

	reloaded, err := models.GetBatchWithItems(f.ctx, f.workspaceId, f.batch.ID)
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusCancelled, reloaded.Status)

	err = models.CancelBatch(f.ctx, f.workspaceId, f.batch.ID)
	require.Error(t, err)
}
