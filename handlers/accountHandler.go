package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/gin-gonic/gin"
)

func ListAccounts(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	params := listParams(c)
	accounts, total, err := models.ListAccounts(c.Request.Context(), params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, accounts, total, params)
}

func GetAccount(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	account, err := models.GetResource[models.Account](c.Request.Context(), pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func CreateAccount(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	account, err := models.CreateAccount(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func UpdateAccount(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	account, err := models.UpdateAccountById(c.Request.Context(), workspaceId, pathId(c, "id"), userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func ToggleAccountActive(c *gin.Context) {
	toggleActive[models.Account](c)
}

/* account tags */

func ListAccountTags(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	tags, err := models.ListAccountTags(c.Request.Context(), workspaceId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func CreateAccountTag(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewAccountTag
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	tag, err := models.CreateAccountTag(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func AssignAccountTag(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	err := models.AssignAccountTag(c.Request.Context(), workspaceId, pathId(c, "id"), pathId(c, "accountId"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func UnassignAccountTag(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	err := models.UnassignAccountTag(c.Request.Context(), workspaceId, pathId(c, "id"), pathId(c, "accountId"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

/* invoices */

func ListAccountInvoices(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	params := listParams(c)
	filter := models.InvoiceListFilter{
		AccountId:   queryId(c, "account_id"),
		InvoiceType: models.InvoiceType(c.Query("invoice_type")),
		Status:      models.InvoiceStatus(c.Query("status")),
	}
	invoices, total, err := models.ListAccountInvoices(c.Request.Context(), workspaceId, filter, params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, invoices, total, params)
}

func GetAccountInvoice(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	invoice, err := models.GetResource[models.AccountInvoice](c.Request.Context(), pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func CreateAccountInvoice(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewAccountInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	invoice, err := models.CreateAccountInvoice(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

/* payments */

// RecordInvoicePayment books a payment against an invoice and moves the
// invoice status. Overpayment is rejected, not clamped.
func RecordInvoicePayment(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewInvoicePayment
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	payment, err := workflow.RecordInvoicePayment(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func ListInvoicePayments(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	params := listParams(c)
	payments, total, err := models.ListInvoicePayments(c.Request.Context(), workspaceId, pathId(c, "id"), params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, payments, total, params)
}
