package models

// ProjectComponentItem tracks parts consumed into a project component.
type ProjectComponentItem struct {
	StockLevel
	ProjectComponentId int `gorm:"not null;index:,unique,composite:stock_key,priority:2" json:"project_component_id"`
}

func (p *ProjectComponentItem) Stock() *StockLevel { return &p.StockLevel }
func (p *ProjectComponentItem) LocationColumn() string { return "project_component_id" }
func (p *ProjectComponentItem) LocationId() int { return p.ProjectComponentId }

func (p *ProjectComponentItem) SetKey(workspaceId, locationId, itemId int) {
	p.WorkspaceId = workspaceId
	p.ProjectComponentId = locationId
	p.ItemId = itemId
}

type ProjectComponentItemLedger struct {
	LedgerEntry
	ProjectComponentId int `gorm:"not null;index:,composite:ledger_key,priority:2" json:"project_component_id"`
}

func (l *ProjectComponentItemLedger) Entry() *LedgerEntry { return &l.LedgerEntry }
func (l *ProjectComponentItemLedger) SetLocation(locationId int) { l.ProjectComponentId = locationId }
