package models

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"github.com/shopspring/decimal"
)

// InvoicePayment rows sum to the parent invoice's paid amount. Recording
// one goes through the invoice workflow so the invoice totals and status
// move in the same unit of work.
type InvoicePayment struct {
	ID               int             `gorm:"primary_key" json:"id"`
	WorkspaceId      int             `gorm:"not null;index" json:"workspace_id"`
	AccountInvoiceId int             `gorm:"not null;index" json:"account_invoice_id"`
	PaymentAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"payment_amount"`
	PaymentMethod    string          `gorm:"size:30" json:"payment_method"`
	Reference        string          `gorm:"size:100" json:"reference"`
	PaidAt           time.Time       `gorm:"not null" json:"paid_at"`
	Notes            string          `gorm:"type:text" json:"notes"`
	CreatedBy        int             `gorm:"not null" json:"created_by"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (p InvoicePayment) GetWorkspaceId() int { return p.WorkspaceId }

type NewInvoicePayment struct {
	AccountInvoiceId int             `json:"account_invoice_id" binding:"required"`
	PaymentAmount    decimal.Decimal `json:"payment_amount" binding:"required"`
	PaymentMethod    string          `json:"payment_method"`
	Reference        string          `json:"reference"`
	PaidAt           *time.Time      `json:"paid_at"`
	Notes            string          `json:"notes"`
}

func ListInvoicePayments(ctx context.Context, workspaceId int, invoiceId int, params ListParams) ([]*InvoicePayment, int64, error) {
	params.Clamp(MaxListLimit)
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&InvoicePayment{}).
		Where("workspace_id = ? AND account_invoice_id = ?", workspaceId, invoiceId)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var payments []*InvoicePayment
	if err := query.Order("id DESC").Offset(params.Skip).Limit(params.Limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
