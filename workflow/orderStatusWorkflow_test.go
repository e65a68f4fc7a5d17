package workflow_test

import (
	"context"
	"fmt"
	"testing"

	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newTenant registers a profile with its own workspace and returns a
// context scoped to it.
func newTenant(t *testing.T) (context.Context, int, int) {
	t.Helper()
	ctx := context.Background()
	_, err := models.SeedDefaultSubscriptionPlan(ctx)
	require.NoError(t, err)

	profile, workspace, err := models.Register(ctx, &models.RegisterInput{
		Name:          "Mg Mg",
		Email:         fmt.Sprintf("%s@example.com", t.Name()),
		Password:      "secret-pass-1",
		WorkspaceName: "Test Works",
	})
	require.NoError(t, err)

	ctx = utils.SetWorkspaceIdInContext(ctx, workspace.ID)
	ctx = utils.SetUserIdInContext(ctx, profile.ID)
	return ctx, workspace.ID, profile.ID
}

type orderFixture struct {
	ctx         context.Context
	workspaceId int
	userId      int
	factory     *models.Factory
	item        *models.Item
	department  *models.Department
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ctx, wid, uid := newTenant(t)

	factory, err := models.CreateFactory(ctx, wid, uid, &models.NewFactory{Name: "Plant A"})
	require.NoError(t, err)
	item, err := models.CreateItem(ctx, wid, uid, &models.NewItem{Name: "Bearing", Sku: "BRG-01", UnitOfMeasure: "pcs"})
	require.NoError(t, err)
	departments, err := models.ListDepartments(ctx, wid)
	require.NoError(t, err)
	require.NotEmpty(t, departments)

	return &orderFixture{ctx: ctx, workspaceId: wid, userId: uid, factory: factory, item: item, department: departments[0]}
}

func (f *orderFixture) statusId(t *testing.T, name string) int {
	t.Helper()
	statuses, err := models.ListStatuses(f.ctx, f.workspaceId)
	require.NoError(t, err)
	for _, s := range statuses {
		if s.Name == name {
			return s.ID
		}
	}
	t.Fatalf("status %q not seeded", name)
	return 0
}

func (f *orderFixture) createPurchaseOrder(t *testing.T, qty, unitCost int64) *models.Order {
	t.Helper()
	order, err := models.CreateOrder(f.ctx, f.workspaceId, f.userId, &models.NewOrder{
		TypeCode:     models.OrderTypePFM,
		DepartmentId: f.department.ID,
		FactoryId:    f.factory.ID,
		Items: []*models.NewOrderItem{{
			ItemId:   f.item.ID,
			Qty:      decimal.NewFromInt(qty),
			UnitCost: decimal.NewFromInt(unitCost),
		}},
	})
	require.NoError(t, err)
	return order
}

// advanceTo steps the order forward until it sits on the named status.
func (f *orderFixture) advanceTo(t *testing.T, orderId int, name string) *models.Order {
	t.Helper()
	target := f.statusId(t, name)
	var order *models.Order
	for i := 0; i < 10; i++ {
		var err error
		order, err = workflow.AdvanceOrder(f.ctx, f.workspaceId, orderId, f.userId)
		require.NoError(t, err)
		if order.CurrentStatusId == target {
			return order
		}
	}
	t.Fatalf("never reached status %q", name)
	return nil
}

func TestAdvanceOrderPostsReceiptIntoStorage(t *testing.T) {
	setupTestDB(t)
	f := newOrderFixture(t)

	order := f.createPurchaseOrder(t, 5, 20)
	require.Equal(t, f.statusId(t, "Pending"), order.CurrentStatusId)

	f.advanceTo(t, order.ID, "Received")

	snap := storageSnapshot(t, f.workspaceId, f.factory.ID, f.item.ID)
	require.True(t, snap.Qty.Equal(decimal.NewFromInt(5)))
	require.True(t, snap.AvgPrice.Equal(decimal.NewFromInt(20)))

	reloaded, err := models.GetOrderWithItems(f.ctx, f.workspaceId, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Items[0].InStorage)
	require.True(t, *reloaded.Items[0].InStorage)
}

func TestAdvanceOrderStopsAtTerminalStatus(t *testing.T) {
	setupTestDB(t)
	f := newOrderFixture(t)

	order := f.createPurchaseOrder(t, 1, 10)
	f.advanceTo(t, order.ID, "Completed")

	_, err := workflow.AdvanceOrder(f.ctx, f.workspaceId, order.ID, f.userId)
	require.ErrorIs(t, err, models.ErrWorkflowTerminal)
}

func TestRevertOrderCompensatesReceipt(t *testing.T) {
	setupTestDB(t)
	f := newOrderFixture(t)

	order := f.createPurchaseOrder(t, 5, 20)
	f.advanceTo(t, order.ID, "Received")

	reverted, err := workflow.RevertOrder(f.ctx, f.workspaceId, order.ID, f.statusId(t, "Purchased"), f.userId)
	require.NoError(t, err)
	require.Equal(t, f.statusId(t, "Purchased"), reverted.CurrentStatusId)

	snap := storageSnapshot(t, f.workspaceId, f.factory.ID, f.item.ID)
	require.True(t, snap.Qty.IsZero())

	reloaded, err := models.GetOrderWithItems(f.ctx, f.workspaceId, order.ID)
	require.NoError(t, err)
	require.False(t, *reloaded.Items[0].InStorage)
}

func TestRevertOrderRejectsEdgesOffTheGraph(t *testing.T) {
	setupTestDB(t)
	f := newOrderFixture(t)

	order := f.createPurchaseOrder(t, 1, 10)
	f.advanceTo(t, order.ID, "Received")

	// default reverts only allow one step back
	_, err := workflow.RevertOrder(f.ctx, f.workspaceId, order.ID, f.statusId(t, "Pending"), f.userId)
	require.ErrorIs(t, err, models.ErrRevertNotAllowed)
}

func TestSetOrderStatusSkipsSideEffects(t *testing.T) {
	setupTestDB(t)
	f := newOrderFixture(t)

	order := f.createPurchaseOrder(t, 5, 20)
	jumped, err := workflow.SetOrderStatus(f.ctx, f.workspaceId, order.ID, f.statusId(t, "Completed"), f.userId)
	require.NoError(t, err)
	require.Equal(t, f.statusId(t, "Completed"), jumped.CurrentStatusId)

	// jumping past "Received" must not touch the ledger
	snap, err := models.GetStockLevel[models.StorageItem, *models.StorageItem](f.ctx, f.workspaceId, f.factory.ID, f.item.ID)
	require.NoError(t, err)
	if snap != nil {
		require.True(t, snap.Qty.IsZero())
	}
}

func TestWithdrawalApprovedLineLandsOnMachine(t *testing.T) {
	setupTestDB(t)
	f := newOrderFixture(t)

	machine, err := models.CreateMachine(f.ctx, f.workspaceId, f.userId, &models.NewMachine{
		FactoryId: f.factory.ID,
		Name:      "Loom 1",
	})
	require.NoError(t, err)

	order, err := models.CreateOrder(f.ctx, f.workspaceId, f.userId, &models.NewOrder{
		TypeCode:     models.OrderTypePFM,
		DepartmentId: f.department.ID,
		FactoryId:    f.factory.ID,
		MachineId:    machine.ID,
		Items: []*models.NewOrderItem{{
			ItemId:   f.item.ID,
			Qty:      decimal.NewFromInt(3),
			UnitCost: decimal.NewFromInt(15),
		}},
	})
	require.NoError(t, err)

	_, err = models.FlipOrderItemApproval(f.ctx, f.workspaceId, order.Items[0].ID, "approved_storage_withdrawal", true, f.userId)
	require.NoError(t, err)

	f.advanceTo(t, order.ID, "Received")

	machineSnap, err := models.GetStockLevel[models.MachineItem, *models.MachineItem](f.ctx, f.workspaceId, machine.ID, f.item.ID)
	require.NoError(t, err)
	require.NotNil(t, machineSnap)
	require.True(t, machineSnap.Qty.Equal(decimal.NewFromInt(3)))

	// goods passed through storage and left again
	storage := storageSnapshot(t, f.workspaceId, f.factory.ID, f.item.ID)
	require.True(t, storage.Qty.IsZero())
}
