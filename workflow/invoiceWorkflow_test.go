package workflow_test

import (
	"testing"

	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newInvoiceFixture(t *testing.T, amount int64) (*orderFixture, *models.AccountInvoice) {
	t.Helper()
	f := newOrderFixture(t)
	account, err := models.CreateAccount(f.ctx, f.workspaceId, f.userId, &models.NewAccount{Name: "U Ba Supplies"})
	require.NoError(t, err)
	invoice, err := models.CreateAccountInvoice(f.ctx, f.workspaceId, f.userId, &models.NewAccountInvoice{
		AccountId:     account.ID,
		InvoiceType:   models.InvoiceTypePayable,
		InvoiceAmount: decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusUnpaid, invoice.Status)
	return f, invoice
}

func TestRecordInvoicePaymentMovesStatus(t *testing.T) {
	setupTestDB(t)
	f, invoice := newInvoiceFixture(t, 1000)

	_, err := workflow.RecordInvoicePayment(f.ctx, f.workspaceId, f.userId, &models.NewInvoicePayment{
		AccountInvoiceId: invoice.ID,
		PaymentAmount:    decimal.NewFromInt(400),
		PaymentMethod:    "bank",
	})
	require.NoError(t, err)

	reloaded, err := models.GetResource[models.AccountInvoice](f.ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPartial, reloaded.Status)
	require.True(t, reloaded.PaidAmount.Equal(decimal.NewFromInt(400)))

	_, err = workflow.RecordInvoicePayment(f.ctx, f.workspaceId, f.userId, &models.NewInvoicePayment{
		AccountInvoiceId: invoice.ID,
		PaymentAmount:    decimal.NewFromInt(600),
	})
	require.NoError(t, err)

	reloaded, err = models.GetResource[models.AccountInvoice](f.ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, reloaded.Status)
	require.True(t, reloaded.PaidAmount.Equal(decimal.NewFromInt(1000)))

	payments, total, err := models.ListInvoicePayments(f.ctx, f.workspaceId, invoice.ID, models.ListParams{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, payments, 2)
}

func TestRecordInvoicePaymentRejectsOverpayment(t *testing.T) {
	setupTestDB(t)
	f, invoice := newInvoiceFixture(t, 500)

	_, err := workflow.RecordInvoicePayment(f.ctx, f.workspaceId, f.userId, &models.NewInvoicePayment{
		AccountInvoiceId: invoice.ID,
		PaymentAmount:    decimal.NewFromInt(501),
	})
	require.ErrorIs(t, err, models.ErrOverpayment)

	reloaded, err := models.GetResource[models.AccountInvoice](f.ctx, invoice.ID)
	require.NoError(t, err)
	require.True(t, reloaded.PaidAmount.IsZero())
	require.Equal(t, models.InvoiceStatusUnpaid, reloaded.Status)
}

func TestRecordInvoicePaymentRejectsNonPositiveAmount(t *testing.T) {
	setupTestDB(t)
	f, invoice := newInvoiceFixture(t, 500)

	_, err := workflow.RecordInvoicePayment(f.ctx, f.workspaceId, f.userId, &models.NewInvoicePayment{
		AccountInvoiceId: invoice.ID,
		PaymentAmount:    decimal.Zero,
	})
	require.ErrorIs(t, err, models.ErrOverpayment)
}
