package workflow

import (
	"context"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/models"
	"gorm.io/gorm"
)

// RecordInvoicePayment books a payment against an invoice. The invoice
// row is locked so concurrent payments cannot push the paid total past
// the invoice amount, and the derived status moves in the same unit of
// work.
func RecordInvoicePayment(ctx context.Context, workspaceId int, userId int, input *models.NewInvoicePayment) (*models.InvoicePayment, error) {
	if !input.PaymentAmount.IsPositive() {
		return nil, models.ErrOverpayment
	}
	paidAt := time.Now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}

	payment := models.InvoicePayment{
		WorkspaceId:      workspaceId,
		AccountInvoiceId: input.AccountInvoiceId,
		PaymentAmount:    input.PaymentAmount,
		PaymentMethod:    input.PaymentMethod,
		Reference:        input.Reference,
		PaidAt:           paidAt,
		Notes:            input.Notes,
		CreatedBy:        userId,
	}
	err := config.RunInTransaction(ctx, func(tx *gorm.DB) error {
		var invoice models.AccountInvoice
		err := models.LockForUpdate(tx).
			Where("workspace_id = ? AND id = ? AND is_deleted = ?", workspaceId, input.AccountInvoiceId, false).
			First(&invoice).Error
		if err == gorm.ErrRecordNotFound {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}

		paid := invoice.PaidAmount.Add(input.PaymentAmount)
		if paid.GreaterThan(invoice.InvoiceAmount) {
			return models.ErrOverpayment
		}

		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		invoice.PaidAmount = paid
		status := invoice.DeriveStatus(time.Now())
		return tx.Model(&invoice).
			UpdateColumns(map[string]interface{}{"paid_amount": paid, "status": status}).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
