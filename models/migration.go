package models

import (
	"log"

	"bitbucket.org/fabworks/mfg_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&SubscriptionPlan{}, &Workspace{}, &WorkspaceMember{}, &WorkspaceInvitation{},
		&Profile{}, &AccessControl{},
		&Status{}, &OrderWorkflow{}, &Department{},
		&Item{}, &ItemTag{}, &ItemTagAssignment{},
		&Factory{}, &FactorySection{}, &Machine{}, &MachineEvent{},
		&Project{}, &ProjectComponent{},
		&StorageItem{}, &StorageItemLedger{},
		&MachineItem{}, &MachineItemLedger{},
		&DamagedItem{}, &DamagedItemLedger{},
		&ProjectComponentItem{}, &ProjectComponentItemLedger{},
		&InventoryItem{}, &InventoryItemLedger{},
		&Order{}, &OrderItem{}, &OrderPartLog{},
		&SalesOrder{}, &SalesOrderItem{}, &SalesDelivery{}, &SalesDeliveryItem{},
		&Account{}, &AccountTag{}, &AccountTagAssignment{}, &AccountInvoice{}, &InvoicePayment{},
		&ProductionFormula{}, &ProductionFormulaItem{}, &ProductionBatch{}, &ProductionBatchItem{},
		&History{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
