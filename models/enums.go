package models

// String-backed enums. Values are stored as short varchar columns so the
// same schema migrates on MySQL and the in-memory test database.

type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

type MemberRole string

const (
	MemberRoleOwner             MemberRole = "owner"
	MemberRoleFinance           MemberRole = "finance"
	MemberRoleGroundTeam        MemberRole = "ground-team"
	MemberRoleGroundTeamManager MemberRole = "ground-team-manager"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleOwner, MemberRoleFinance, MemberRoleGroundTeam, MemberRoleGroundTeamManager:
		return true
	}
	return false
}

type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusSuspended MemberStatus = "suspended"
	MemberStatusInvited   MemberStatus = "invited"
)

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusExpired   InvitationStatus = "expired"
	InvitationStatusCancelled InvitationStatus = "cancelled"
)

type AccessType string

const (
	AccessTypePage              AccessType = "page"
	AccessTypeManageOrderStatus AccessType = "manage-order-status"
	AccessTypeFeature           AccessType = "feature"
)

// LedgerTransactionType covers every movement the five stock ledgers record.
type LedgerTransactionType string

const (
	TxTypePurchaseOrder       LedgerTransactionType = "purchase_order"
	TxTypeManualAdd           LedgerTransactionType = "manual_add"
	TxTypeTransferIn          LedgerTransactionType = "transfer_in"
	TxTypeTransferOut         LedgerTransactionType = "transfer_out"
	TxTypeConsumption         LedgerTransactionType = "consumption"
	TxTypeDamaged             LedgerTransactionType = "damaged"
	TxTypeInventoryAdjustment LedgerTransactionType = "inventory_adjustment"
	TxTypeCostAdjustment      LedgerTransactionType = "cost_adjustment"
)

// IsInflow reports whether the type adds quantity at the recorded location.
func (t LedgerTransactionType) IsInflow() bool {
	switch t {
	case TxTypePurchaseOrder, TxTypeManualAdd, TxTypeTransferIn:
		return true
	}
	return false
}

// IsOutflow reports whether the type removes quantity at the recorded location.
func (t LedgerTransactionType) IsOutflow() bool {
	switch t {
	case TxTypeTransferOut, TxTypeConsumption, TxTypeDamaged:
		return true
	}
	return false
}

// OrderTypeCode selects the workflow an order runs through.
// PFM: purchase for machine, PFS: purchase for storage,
// STM: storage to machine transfer, MTM: machine to machine transfer.
type OrderTypeCode string

const (
	OrderTypePFM OrderTypeCode = "PFM"
	OrderTypePFS OrderTypeCode = "PFS"
	OrderTypeSTM OrderTypeCode = "STM"
	OrderTypeMTM OrderTypeCode = "MTM"
)

type MachineEventType string

const (
	MachineEventOn        MachineEventType = "ON"
	MachineEventOff       MachineEventType = "OFF"
	MachineEventRepairing MachineEventType = "REPAIRING"
	MachineEventReplacing MachineEventType = "REPLACING"
)

type InvoiceType string

const (
	InvoiceTypePayable    InvoiceType = "payable"
	InvoiceTypeReceivable InvoiceType = "receivable"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

type FormulaRole string

const (
	FormulaRoleInput     FormulaRole = "input"
	FormulaRoleOutput    FormulaRole = "output"
	FormulaRoleWaste     FormulaRole = "waste"
	FormulaRoleByproduct FormulaRole = "byproduct"
)

type BatchStatus string

const (
	BatchStatusDraft      BatchStatus = "draft"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusCancelled  BatchStatus = "cancelled"
)

// UsageCounter names a per-workspace usage column guarded by a plan limit.
type UsageCounter string

const (
	CounterMembers    UsageCounter = "current_members_count"
	CounterStorageMiB UsageCounter = "current_storage_mib"
	CounterOrders     UsageCounter = "current_orders_this_month"
	CounterFactories  UsageCounter = "current_factories_count"
	CounterMachines   UsageCounter = "current_machines_count"
	CounterProjects   UsageCounter = "current_projects_count"
)
