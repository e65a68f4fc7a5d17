package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/models/reports"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var ledgerKinds = map[string]workflow.LedgerKind{
	"storage":           workflow.LedgerStorage,
	"machine":           workflow.LedgerMachine,
	"damaged":           workflow.LedgerDamaged,
	"project-component": workflow.LedgerComponent,
	"inventory":         workflow.LedgerInventory,
}

func ledgerKind(c *gin.Context) (workflow.LedgerKind, bool) {
	kind, ok := ledgerKinds[c.Param("kind")]
	if !ok {
		middlewares.RenderProblem(c, models.ErrNotFound)
		return "", false
	}
	return kind, true
}

// ledgerColumn names the location column of each ledger table, for the
// location_id query filter.
func ledgerColumn(kind workflow.LedgerKind) string {
	switch kind {
	case workflow.LedgerMachine:
		return "machine_id"
	case workflow.LedgerComponent:
		return "project_component_id"
	default:
		return "factory_id"
	}
}

// ListStockLevels pages the snapshot rows of one ledger kind.
func ListStockLevels(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	kind, ok := ledgerKind(c)
	if !ok {
		return
	}
	params := listParams(c)
	locationId := queryId(c, "location_id")
	ctx := c.Request.Context()

	var (
		items any
		total int64
		err   error
	)
	switch kind {
	case workflow.LedgerStorage:
		items, total, err = models.ListStockLevels[models.StorageItem, *models.StorageItem](ctx, workspaceId, locationId, params)
	case workflow.LedgerMachine:
		items, total, err = models.ListStockLevels[models.MachineItem, *models.MachineItem](ctx, workspaceId, locationId, params)
	case workflow.LedgerDamaged:
		items, total, err = models.ListStockLevels[models.DamagedItem, *models.DamagedItem](ctx, workspaceId, locationId, params)
	case workflow.LedgerComponent:
		items, total, err = models.ListStockLevels[models.ProjectComponentItem, *models.ProjectComponentItem](ctx, workspaceId, locationId, params)
	case workflow.LedgerInventory:
		items, total, err = models.ListStockLevels[models.InventoryItem, *models.InventoryItem](ctx, workspaceId, locationId, params)
	}
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, items, total, params)
}

// GetStockLevel answers one (location, item) key. A key nothing was ever
// posted against reads as zero stock, not as an error.
func GetStockLevel(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	kind, ok := ledgerKind(c)
	if !ok {
		return
	}
	locationId := queryId(c, "location_id")
	itemId := queryId(c, "item_id")
	ctx := c.Request.Context()

	var (
		snap any
		err  error
	)
	switch kind {
	case workflow.LedgerStorage:
		snap, err = models.GetStockLevel[models.StorageItem, *models.StorageItem](ctx, workspaceId, locationId, itemId)
	case workflow.LedgerMachine:
		snap, err = models.GetStockLevel[models.MachineItem, *models.MachineItem](ctx, workspaceId, locationId, itemId)
	case workflow.LedgerDamaged:
		snap, err = models.GetStockLevel[models.DamagedItem, *models.DamagedItem](ctx, workspaceId, locationId, itemId)
	case workflow.LedgerComponent:
		snap, err = models.GetStockLevel[models.ProjectComponentItem, *models.ProjectComponentItem](ctx, workspaceId, locationId, itemId)
	case workflow.LedgerInventory:
		snap, err = models.GetStockLevel[models.InventoryItem, *models.InventoryItem](ctx, workspaceId, locationId, itemId)
	}
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": snap})
}

func ledgerFilter(c *gin.Context, kind workflow.LedgerKind) models.LedgerFilter {
	return models.LedgerFilter{
		LocationColumn: ledgerColumn(kind),
		LocationId:     queryId(c, "location_id"),
		ItemId:         queryId(c, "item_id"),
		OrderId:        queryId(c, "order_id"),
	}
}

func listLedgerPage(c *gin.Context, kind workflow.LedgerKind, workspaceId int, params models.ListParams) (any, []*models.LedgerEntry, int64, error) {
	ctx := c.Request.Context()
	filter := ledgerFilter(c, kind)
	switch kind {
	case workflow.LedgerStorage:
		rows, total, err := models.ListLedgerEntries[models.StorageItemLedger](ctx, workspaceId, filter, params)
		return rows, flattenEntries[models.StorageItemLedger, *models.StorageItemLedger](rows), total, err
	case workflow.LedgerMachine:
		rows, total, err := models.ListLedgerEntries[models.MachineItemLedger](ctx, workspaceId, filter, params)
		return rows, flattenEntries[models.MachineItemLedger, *models.MachineItemLedger](rows), total, err
	case workflow.LedgerDamaged:
		rows, total, err := models.ListLedgerEntries[models.DamagedItemLedger](ctx, workspaceId, filter, params)
		return rows, flattenEntries[models.DamagedItemLedger, *models.DamagedItemLedger](rows), total, err
	case workflow.LedgerComponent:
		rows, total, err := models.ListLedgerEntries[models.ProjectComponentItemLedger](ctx, workspaceId, filter, params)
		return rows, flattenEntries[models.ProjectComponentItemLedger, *models.ProjectComponentItemLedger](rows), total, err
	default:
		rows, total, err := models.ListLedgerEntries[models.InventoryItemLedger](ctx, workspaceId, filter, params)
		return rows, flattenEntries[models.InventoryItemLedger, *models.InventoryItemLedger](rows), total, err
	}
}

func flattenEntries[L any, PL interface {
	*L
	models.LedgerRow
}](rows []*L) []*models.LedgerEntry {
	out := make([]*models.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, PL(row).Entry())
	}
	return out
}

// ListLedgerEntries pages the movement rows of one ledger kind, newest
// first.
func ListLedgerEntries(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	kind, ok := ledgerKind(c)
	if !ok {
		return
	}
	params := listParams(c)
	items, _, total, err := listLedgerPage(c, kind, workspaceId, params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, items, total, params)
}

// ExportLedger streams the filtered ledger as an xlsx workbook.
func ExportLedger(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	kind, ok := ledgerKind(c)
	if !ok {
		return
	}

	var entries []*models.LedgerEntry
	params := models.ListParams{Limit: models.MaxListLimit}
	for {
		_, page, total, err := listLedgerPage(c, kind, workspaceId, params)
		if err != nil {
			middlewares.RenderProblem(c, err)
			return
		}
		entries = append(entries, page...)
		params.Skip += len(page)
		if int64(params.Skip) >= total || len(page) == 0 {
			break
		}
	}

	book, err := reports.LedgerWorkbook(entries)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+reports.LedgerFilename(string(kind), workspaceId))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := book.Write(c.Writer); err != nil {
		middlewares.RenderProblem(c, err)
	}
}

type manualEntryInput struct {
	Type       models.LedgerTransactionType `json:"type" binding:"required"`
	LocationId int                          `json:"location_id" binding:"required"`
	ItemId     int                          `json:"item_id" binding:"required"`
	Quantity   decimal.Decimal              `json:"quantity"`
	UnitCost   decimal.Decimal              `json:"unit_cost"`
	Notes      string                       `json:"notes"`
}

// RecordManualEntry books a hand-entered posting against one ledger.
func RecordManualEntry(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	kind, ok := ledgerKind(c)
	if !ok {
		return
	}
	var input manualEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	if input.Quantity.IsNegative() || input.UnitCost.IsNegative() {
		middlewares.RenderProblem(c, models.ErrInvalidQuantity)
		return
	}
	entry, err := workflow.RecordManualEntry(c.Request.Context(), kind, workflow.RecordRequest{
		WorkspaceId: workspaceId,
		LocationId:  input.LocationId,
		ItemId:      input.ItemId,
		Type:        input.Type,
		Quantity:    input.Quantity,
		UnitCost:    input.UnitCost,
		SourceType:  "manual",
		Notes:       input.Notes,
		PerformedBy: userId,
	})
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

type transferInput struct {
	FromId   int             `json:"from_id" binding:"required"`
	ToId     int             `json:"to_id" binding:"required"`
	ItemId   int             `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Notes    string          `json:"notes"`
}

// TransferStock moves goods between two storages as a paired
// transfer_out / transfer_in.
func TransferStock(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input transferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	result, err := workflow.RunTransfer(c.Request.Context(), workflow.TransferRequest{
		WorkspaceId: workspaceId,
		FromId:      input.FromId,
		ToId:        input.ToId,
		ItemId:      input.ItemId,
		Quantity:    input.Quantity,
		Notes:       input.Notes,
		PerformedBy: userId,
	})
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type ledgerNotesInput struct {
	Notes string `json:"notes"`
}

// UpdateLedgerNotes edits the only mutable column of a ledger row.
func UpdateLedgerNotes(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	kind, ok := ledgerKind(c)
	if !ok {
		return
	}
	var input ledgerNotesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	id := pathId(c, "id")
	ctx := c.Request.Context()

	var err error
	switch kind {
	case workflow.LedgerStorage:
		err = models.UpdateLedgerNotes[models.StorageItemLedger](ctx, workspaceId, id, input.Notes)
	case workflow.LedgerMachine:
		err = models.UpdateLedgerNotes[models.MachineItemLedger](ctx, workspaceId, id, input.Notes)
	case workflow.LedgerDamaged:
		err = models.UpdateLedgerNotes[models.DamagedItemLedger](ctx, workspaceId, id, input.Notes)
	case workflow.LedgerComponent:
		err = models.UpdateLedgerNotes[models.ProjectComponentItemLedger](ctx, workspaceId, id, input.Notes)
	case workflow.LedgerInventory:
		err = models.UpdateLedgerNotes[models.InventoryItemLedger](ctx, workspaceId, id, input.Notes)
	}
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// VerifyLedgerKey replays one (location, item) key and compares the sum
// against the snapshot.
func VerifyLedgerKey(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	kind, ok := ledgerKind(c)
	if !ok {
		return
	}
	report, err := workflow.VerifyLedger(c.Request.Context(), workspaceId, kind, queryId(c, "location_id"), queryId(c, "item_id"))
	if err != nil && err != models.ErrLedgerDrift {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ReconcileWorkspace sweeps every key of every ledger. Drifts are
// reported, not fixed.
func ReconcileWorkspace(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	report, err := workflow.ReconcileWorkspace(c.Request.Context(), workspaceId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
