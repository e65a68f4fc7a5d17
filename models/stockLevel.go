package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockLevel holds the quantity aggregate shared by the five snapshot
// tables. Each snapshot adds its own location column and a composite
// unique key (workspace, location, item).
type StockLevel struct {
	ID          int              `gorm:"primary_key" json:"id"`
	WorkspaceId int              `gorm:"not null;index:,unique,composite:stock_key,priority:1" json:"workspace_id"`
	ItemId      int              `gorm:"not null;index:,unique,composite:stock_key,priority:3" json:"item_id"`
	Qty         decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"qty"`
	AvgPrice    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"avg_price"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// Value is qty times average price, zero while avg price is unset.
func (s *StockLevel) Value() decimal.Decimal {
	if s.AvgPrice == nil {
		return decimal.Zero
	}
	return s.Qty.Mul(*s.AvgPrice)
}

// StockRow is satisfied by pointers to the five snapshot kinds.
type StockRow interface {
	Stock() *StockLevel
	LocationColumn() string
	LocationId() int
	SetKey(workspaceId, locationId, itemId int)
}

// LedgerEntry holds the columns shared by the five ledger tables.
// Rows are append-only; only notes may change after insert.
type LedgerEntry struct {
	ID              int                   `gorm:"primary_key" json:"id"`
	WorkspaceId     int                   `gorm:"not null;index:,composite:ledger_key,priority:1" json:"workspace_id"`
	ItemId          int                   `gorm:"not null;index:,composite:ledger_key,priority:3" json:"item_id"`
	TransactionType LedgerTransactionType `gorm:"size:30;not null" json:"transaction_type"`
	Quantity        decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitCost        decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	TotalCost       decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	QtyBefore       decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"qty_before"`
	QtyAfter        decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"qty_after"`
	ValueBefore     decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"value_before"`
	ValueAfter      decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"value_after"`
	AvgPriceBefore  *decimal.Decimal      `gorm:"type:decimal(20,4)" json:"avg_price_before"`
	AvgPriceAfter   *decimal.Decimal      `gorm:"type:decimal(20,4)" json:"avg_price_after"`
	SourceType      string                `gorm:"size:50" json:"source_type"`
	SourceId        string                `gorm:"size:64;index" json:"source_id"`
	OrderId         int                   `gorm:"index" json:"order_id"`
	InvoiceId       int                   `json:"invoice_id"`
	TransferFrom    string                `gorm:"size:100" json:"transfer_from"`
	TransferTo      string                `gorm:"size:100" json:"transfer_to"`
	Notes           string                `gorm:"type:text" json:"notes"`
	PerformedBy     int                   `gorm:"not null" json:"performed_by"`
	PerformedAt     time.Time             `gorm:"not null;index" json:"performed_at"`
}

// LedgerRow is satisfied by pointers to the five ledger kinds.
type LedgerRow interface {
	Entry() *LedgerEntry
	SetLocation(locationId int)
}

// BeforeUpdate rejects any update that touches more than the notes
// column. Promoted into every ledger table via embedding.
func (e *LedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	if len(tx.Statement.Selects) == 1 && tx.Statement.Selects[0] == "notes" {
		return nil
	}
	return ErrImmutableLedger
}

func (e *LedgerEntry) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableLedger
}

// Delta is the signed quantity effect of the entry, used by
// reconciliation to replay a ledger from zero.
func (e *LedgerEntry) Delta() decimal.Decimal {
	return e.QtyAfter.Sub(e.QtyBefore)
}

// UpdateLedgerNotes is the single permitted mutation of a ledger row.
func UpdateLedgerNotes[L any](ctx context.Context, workspaceId int, id int, notes string) error {
	db := config.GetDB()
	var row L
	result := db.WithContext(ctx).Model(&row).
		Where("workspace_id = ? AND id = ?", workspaceId, id).
		Select("notes").
		Update("notes", notes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStockLevel returns the snapshot row for one key, nil when no stock
// has ever been recorded there.
func GetStockLevel[S any, PS interface {
	*S
	StockRow
}](ctx context.Context, workspaceId int, locationId int, itemId int) (*S, error) {
	db := config.GetDB()
	var snap S
	ps := PS(&snap)
	err := db.WithContext(ctx).
		Where("workspace_id = ?", workspaceId).
		Where(ps.LocationColumn()+" = ?", locationId).
		Where("item_id = ?", itemId).
		First(&snap).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListStockLevels pages snapshot rows, optionally filtered by location.
func ListStockLevels[S any, PS interface {
	*S
	StockRow
}](ctx context.Context, workspaceId int, locationId int, params ListParams) ([]*S, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	var model S
	query := db.WithContext(ctx).Model(&model).Where("workspace_id = ?", workspaceId)
	if locationId != 0 {
		query = query.Where(PS(&model).LocationColumn()+" = ?", locationId)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*S
	if err := query.Order("id").Offset(params.Skip).Limit(params.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// LedgerFilter narrows ledger reads. Zero values mean no filter.
type LedgerFilter struct {
	LocationColumn string
	LocationId     int
	ItemId         int
	OrderId        int
}

// ListLedgerEntries pages ledger rows in insertion order, newest first.
func ListLedgerEntries[L any](ctx context.Context, workspaceId int, filter LedgerFilter, params ListParams) ([]*L, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	var model L
	query := db.WithContext(ctx).Model(&model).Where("workspace_id = ?", workspaceId)
	if filter.LocationId != 0 && filter.LocationColumn != "" {
		query = query.Where(filter.LocationColumn+" = ?", filter.LocationId)
	}
	if filter.ItemId != 0 {
		query = query.Where("item_id = ?", filter.ItemId)
	}
	if filter.OrderId != 0 {
		query = query.Where("order_id = ?", filter.OrderId)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*L
	if err := query.Order("id DESC").Offset(params.Skip).Limit(params.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
