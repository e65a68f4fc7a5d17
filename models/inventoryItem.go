package models

// InventoryItem tracks finished goods ready for sale at a factory.
type InventoryItem struct {
	StockLevel
	FactoryId int `gorm:"not null;index:,unique,composite:stock_key,priority:2" json:"factory_id"`
}

func (i *InventoryItem) Stock() *StockLevel { return &i.StockLevel }
func (i *InventoryItem) LocationColumn() string { return "factory_id" }
func (i *InventoryItem) LocationId() int { return i.FactoryId }

func (i *InventoryItem) SetKey(workspaceId, locationId, itemId int) {
	i.WorkspaceId = workspaceId
	i.FactoryId = locationId
	i.ItemId = itemId
}

type InventoryItemLedger struct {
	LedgerEntry
	FactoryId int `gorm:"not null;index:,composite:ledger_key,priority:2" json:"factory_id"`
}

func (l *InventoryItemLedger) Entry() *LedgerEntry { return &l.LedgerEntry }
func (l *InventoryItemLedger) SetLocation(locationId int) { l.FactoryId = locationId }
