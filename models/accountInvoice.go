package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountInvoice is a payable or receivable. PaidAmount is derived from
// its payment rows and never written directly by callers.
type AccountInvoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	WorkspaceId   int             `gorm:"not null;index" json:"workspace_id"`
	AccountId     int             `gorm:"not null;index" json:"account_id"`
	OrderId       int             `gorm:"index" json:"order_id"`
	InvoiceType   InvoiceType     `gorm:"size:15;not null" json:"invoice_type"`
	InvoiceNumber string          `gorm:"size:50" json:"invoice_number"`
	InvoiceAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"invoice_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`
	Status        InvoiceStatus   `gorm:"size:15;not null;default:unpaid" json:"status"`
	IssuedAt      time.Time       `gorm:"not null" json:"issued_at"`
	DueDate       *time.Time      `json:"due_date"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedBy     int             `gorm:"not null" json:"created_by"`
	UpdatedBy     int             `json:"updated_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted     *bool           `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt     *time.Time      `json:"deleted_at"`
	DeletedBy     int             `json:"deleted_by"`
}

func (i AccountInvoice) GetWorkspaceId() int { return i.WorkspaceId }

// DeriveStatus computes the status the invoice should carry given its
// amounts and due date.
func (i *AccountInvoice) DeriveStatus(now time.Time) InvoiceStatus {
	switch {
	case i.PaidAmount.GreaterThanOrEqual(i.InvoiceAmount) && i.InvoiceAmount.IsPositive():
		return InvoiceStatusPaid
	case i.DueDate != nil && now.After(*i.DueDate):
		return InvoiceStatusOverdue
	case i.PaidAmount.IsPositive():
		return InvoiceStatusPartial
	default:
		return InvoiceStatusUnpaid
	}
}

type NewAccountInvoice struct {
	AccountId     int             `json:"account_id" binding:"required"`
	OrderId       int             `json:"order_id"`
	InvoiceType   InvoiceType     `json:"invoice_type" binding:"required,oneof=payable receivable"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount" binding:"required"`
	IssuedAt      *time.Time      `json:"issued_at"`
	DueDate       *time.Time      `json:"due_date"`
	Notes         string          `json:"notes"`
}

func CreateAccountInvoice(ctx context.Context, workspaceId int, creatorId int, input *NewAccountInvoice) (*AccountInvoice, error) {
	if err := utils.ValidateResourceId[Account](ctx, workspaceId, input.AccountId); err != nil {
		return nil, ErrNotFound
	}
	if input.OrderId != 0 {
		if err := utils.ValidateResourceId[Order](ctx, workspaceId, input.OrderId); err != nil {
			return nil, ErrNotFound
		}
	}
	if !input.InvoiceAmount.IsPositive() {
		return nil, newDomainError("validation_error", 422, "invoice amount must be positive")
	}

	issuedAt := time.Now()
	if input.IssuedAt != nil {
		issuedAt = *input.IssuedAt
	}
	invoice := AccountInvoice{
		WorkspaceId:   workspaceId,
		AccountId:     input.AccountId,
		OrderId:       input.OrderId,
		InvoiceType:   input.InvoiceType,
		InvoiceNumber: input.InvoiceNumber,
		InvoiceAmount: input.InvoiceAmount,
		PaidAmount:    decimal.Zero,
		IssuedAt:      issuedAt,
		DueDate:       input.DueDate,
		Notes:         input.Notes,
		CreatedBy:     creatorId,
		IsDeleted:     utils.NewFalse(),
	}
	invoice.Status = invoice.DeriveStatus(time.Now())
	if err := createScoped(ctx, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

type InvoiceListFilter struct {
	AccountId   int
	InvoiceType InvoiceType
	Status      InvoiceStatus
}

func ListAccountInvoices(ctx context.Context, workspaceId int, filter InvoiceListFilter, params ListParams) ([]*AccountInvoice, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&AccountInvoice{}).
		Where("workspace_id = ? AND is_deleted = ?", workspaceId, false)
	if filter.AccountId != 0 {
		query = query.Where("account_id = ?", filter.AccountId)
	}
	if filter.InvoiceType != "" {
		query = query.Where("invoice_type = ?", filter.InvoiceType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var invoices []*AccountInvoice
	if err := query.Order("id DESC").Offset(params.Skip).Limit(params.Limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// RefreshOverdueInvoices flips unpaid and partial invoices past their
// due date to overdue. Run by the periodic sweep.
func RefreshOverdueInvoices(tx *gorm.DB, now time.Time) (int64, error) {
	result := tx.Model(&AccountInvoice{}).
		Where("status IN ? AND due_date IS NOT NULL AND due_date < ? AND is_deleted = ?",
			[]InvoiceStatus{InvoiceStatusUnpaid, InvoiceStatusPartial}, now, false).
		UpdateColumn("status", InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}
