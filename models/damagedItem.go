package models

// DamagedItem tracks write-off stock quarantined at a factory.
type DamagedItem struct {
	StockLevel
	FactoryId int `gorm:"not null;index:,unique,composite:stock_key,priority:2" json:"factory_id"`
}

func (d *DamagedItem) Stock() *StockLevel { return &d.StockLevel }
func (d *DamagedItem) LocationColumn() string { return "factory_id" }
func (d *DamagedItem) LocationId() int { return d.FactoryId }

func (d *DamagedItem) SetKey(workspaceId, locationId, itemId int) {
	d.WorkspaceId = workspaceId
	d.FactoryId = locationId
	d.ItemId = itemId
}

type DamagedItemLedger struct {
	LedgerEntry
	FactoryId int `gorm:"not null;index:,composite:ledger_key,priority:2" json:"factory_id"`
}

func (l *DamagedItemLedger) Entry() *LedgerEntry { return &l.LedgerEntry }
func (l *DamagedItemLedger) SetLocation(locationId int) { l.FactoryId = locationId }
