package models

// StorageItem tracks raw part stock held at a factory store.
type StorageItem struct {
	StockLevel
	FactoryId int `gorm:"not null;index:,unique,composite:stock_key,priority:2" json:"factory_id"`
}

func (s *StorageItem) Stock() *StockLevel { return &s.StockLevel }
func (s *StorageItem) LocationColumn() string { return "factory_id" }
func (s *StorageItem) LocationId() int { return s.FactoryId }

func (s *StorageItem) SetKey(workspaceId, locationId, itemId int) {
	s.WorkspaceId = workspaceId
	s.FactoryId = locationId
	s.ItemId = itemId
}

type StorageItemLedger struct {
	LedgerEntry
	FactoryId int `gorm:"not null;index:,composite:ledger_key,priority:2" json:"factory_id"`
}

func (l *StorageItemLedger) Entry() *LedgerEntry { return &l.LedgerEntry }
func (l *StorageItemLedger) SetLocation(locationId int) { l.FactoryId = locationId }
