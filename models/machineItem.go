package models

// MachineItem tracks parts mounted on or staged at a machine.
type MachineItem struct {
	StockLevel
	MachineId int `gorm:"not null;index:,unique,composite:stock_key,priority:2" json:"machine_id"`
}

func (m *MachineItem) Stock() *StockLevel { return &m.StockLevel }
func (m *MachineItem) LocationColumn() string { return "machine_id" }
func (m *MachineItem) LocationId() int { return m.MachineId }

func (m *MachineItem) SetKey(workspaceId, locationId, itemId int) {
	m.WorkspaceId = workspaceId
	m.MachineId = locationId
	m.ItemId = itemId
}

type MachineItemLedger struct {
	LedgerEntry
	MachineId int `gorm:"not null;index:,composite:ledger_key,priority:2" json:"machine_id"`
}

func (l *MachineItemLedger) Entry() *LedgerEntry { return &l.LedgerEntry }
func (l *MachineItemLedger) SetLocation(locationId int) { l.MachineId = locationId }
