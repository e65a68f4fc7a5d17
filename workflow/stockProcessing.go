package workflow

import (
	"time"

	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// snapPtr and ledgerPtr tie a snapshot/ledger pair to its shared
// column accessors so one engine serves all five ledgers.
type snapPtr[S any] interface {
	*S
	models.StockRow
}

type ledgerPtr[L any] interface {
	*L
	models.LedgerRow
}

// RecordRequest is one posting against a single (workspace, location,
// item) key.
type RecordRequest struct {
	WorkspaceId  int
	LocationId   int
	ItemId       int
	Type         models.LedgerTransactionType
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	SourceType   string
	SourceId     string
	OrderId      int
	InvoiceId    int
	TransferFrom string
	TransferTo   string
	Notes        string
	PerformedBy  int
}

// RecordEntry updates the snapshot row and appends the ledger row in the
// caller's transaction. The snapshot row is taken under a row lock so
// postings against the same key serialize; disjoint keys run in
// parallel.
//
// Quantity effect by transaction type:
//
//	purchase_order | manual_add | transfer_in   +qty at unit cost
//	transfer_out | consumption | damaged        -qty at issued (avg) cost
//	inventory_adjustment                        absolute set, avg kept
//	cost_adjustment                             qty kept, avg replaced
//
// Average price follows weighted average cost flow on inflows and is
// untouched by outflows. Flow types require a positive quantity and
// inventory_adjustment a non-negative target, so snapshots never go
// negative.
func RecordEntry[S any, L any, PS snapPtr[S], PL ledgerPtr[L]](tx *gorm.DB, req RecordRequest) (*L, error) {
	snap, err := lockOrCreateSnapshot[S, PS](tx, req.WorkspaceId, req.LocationId, req.ItemId)
	if err != nil {
		return nil, err
	}
	stock := PS(snap).Stock()

	qtyBefore := stock.Qty
	valueBefore := stock.Value()
	avgBefore := clonePrice(stock.AvgPrice)

	var qtyAfter, valueAfter, unitCost, totalCost decimal.Decimal
	var avgAfter *decimal.Decimal

	switch {
	case req.Type.IsInflow():
		if !req.Quantity.IsPositive() {
			return nil, models.ErrInvalidQuantity
		}
		unitCost = req.UnitCost
		totalCost = req.Quantity.Mul(unitCost)
		qtyAfter = qtyBefore.Add(req.Quantity)
		valueAfter = valueBefore.Add(totalCost)
		if qtyAfter.IsPositive() {
			avg := valueAfter.DivRound(qtyAfter, 4)
			avgAfter = &avg
		} else {
			avgAfter = clonePrice(avgBefore)
		}

	case req.Type.IsOutflow():
		if !req.Quantity.IsPositive() {
			return nil, models.ErrInvalidQuantity
		}
		qtyAfter = qtyBefore.Sub(req.Quantity)
		if qtyAfter.IsNegative() {
			return nil, models.ErrInsufficientStock
		}
		issued := decimal.Zero
		if avgBefore != nil {
			issued = *avgBefore
		}
		unitCost = issued
		totalCost = req.Quantity.Mul(issued)
		valueAfter = valueBefore.Sub(totalCost)
		avgAfter = clonePrice(avgBefore)

	case req.Type == models.TxTypeInventoryAdjustment:
		if req.Quantity.IsNegative() {
			return nil, models.ErrInvalidQuantity
		}
		qtyAfter = req.Quantity
		issued := decimal.Zero
		if avgBefore != nil {
			issued = *avgBefore
		}
		unitCost = issued
		totalCost = qtyAfter.Sub(qtyBefore).Abs().Mul(issued)
		valueAfter = qtyAfter.Mul(issued)
		avgAfter = clonePrice(avgBefore)

	case req.Type == models.TxTypeCostAdjustment:
		if req.UnitCost.IsNegative() {
			return nil, models.ErrInvalidQuantity
		}
		qtyAfter = qtyBefore
		unitCost = req.UnitCost
		totalCost = qtyBefore.Mul(unitCost)
		valueAfter = totalCost
		avgAfter = &unitCost

	default:
		return nil, models.ErrConflict
	}

	var row L
	pl := PL(&row)
	entry := pl.Entry()
	entry.WorkspaceId = req.WorkspaceId
	entry.ItemId = req.ItemId
	entry.TransactionType = req.Type
	entry.Quantity = req.Quantity
	entry.UnitCost = unitCost
	entry.TotalCost = totalCost
	entry.QtyBefore = qtyBefore
	entry.QtyAfter = qtyAfter
	entry.ValueBefore = valueBefore
	entry.ValueAfter = valueAfter
	entry.AvgPriceBefore = avgBefore
	entry.AvgPriceAfter = avgAfter
	entry.SourceType = req.SourceType
	entry.SourceId = req.SourceId
	entry.OrderId = req.OrderId
	entry.InvoiceId = req.InvoiceId
	entry.TransferFrom = req.TransferFrom
	entry.TransferTo = req.TransferTo
	entry.Notes = req.Notes
	entry.PerformedBy = req.PerformedBy
	entry.PerformedAt = time.Now()
	pl.SetLocation(req.LocationId)

	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}

	stock.Qty = qtyAfter
	stock.AvgPrice = avgAfter
	if err := tx.Model(snap).
		Select("qty", "avg_price").
		Updates(map[string]interface{}{"qty": qtyAfter, "avg_price": avgAfter}).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// lockOrCreateSnapshot takes the snapshot row under FOR UPDATE, creating
// the zero row first when the key has never held stock.
func lockOrCreateSnapshot[S any, PS snapPtr[S]](tx *gorm.DB, workspaceId, locationId, itemId int) (*S, error) {
	var snap S
	ps := PS(&snap)
	query := models.LockForUpdate(tx).
		Where("workspace_id = ?", workspaceId).
		Where(ps.LocationColumn()+" = ?", locationId).
		Where("item_id = ?", itemId)

	err := query.First(&snap).Error
	if err == nil {
		return &snap, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	ps.SetKey(workspaceId, locationId, itemId)
	ps.Stock().Qty = decimal.Zero
	if err := tx.Create(&snap).Error; err != nil {
		return nil, err
	}
	return &snap, nil
}

func clonePrice(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// VerifyReport is the outcome of replaying one ledger against its
// snapshot.
type VerifyReport struct {
	WorkspaceId int             `json:"workspace_id"`
	LocationId  int             `json:"location_id"`
	ItemId      int             `json:"item_id"`
	SnapshotQty decimal.Decimal `json:"snapshot_qty"`
	LedgerQty   decimal.Decimal `json:"ledger_qty"`
	EntryCount  int             `json:"entry_count"`
	InSync      bool            `json:"in_sync"`
}

// VerifyKey recomputes the quantity for one key by summing ledger deltas
// and compares it against the snapshot. Diagnostic only: the snapshot
// stays authoritative either way.
func VerifyKey[S any, L any, PS snapPtr[S], PL ledgerPtr[L]](tx *gorm.DB, workspaceId, locationId, itemId int) (*VerifyReport, error) {
	report := &VerifyReport{WorkspaceId: workspaceId, LocationId: locationId, ItemId: itemId}

	var snap S
	ps := PS(&snap)
	err := tx.
		Where("workspace_id = ?", workspaceId).
		Where(ps.LocationColumn()+" = ?", locationId).
		Where("item_id = ?", itemId).
		First(&snap).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err == nil {
		report.SnapshotQty = ps.Stock().Qty
	}

	var rows []*L
	var zero L
	if err := tx.Model(&zero).
		Where("workspace_id = ?", workspaceId).
		Where(ps.LocationColumn()+" = ?", locationId).
		Where("item_id = ?", itemId).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(PL(row).Entry().Delta())
	}
	report.LedgerQty = total
	report.EntryCount = len(rows)
	report.InSync = report.SnapshotQty.Equal(total)

	if !report.InSync {
		return report, models.ErrLedgerDrift
	}
	return report, nil
}
