package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/handlers"
	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const sweepInterval = time.Hour

func buildCors(settings *config.Settings) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist; everything else stays
	// open for developer convenience.
	if settings.Environment == config.EnvProduction {
		corsConfig.AllowOrigins = settings.CORSOrigins
	} else if len(settings.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = settings.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Workspace-Id", "X-Request-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "X-Request-Id")
	corsConfig.AllowCredentials = true
	return cors.New(corsConfig)
}

func registerRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
		auth.POST("/forgot-password", handlers.ForgotPassword)
		auth.POST("/reset-password", handlers.ResetPassword)
		auth.GET("/invitations/:token", handlers.ValidateInvitation)

		auth.POST("/switch-workspace", middlewares.RequireAuth(), handlers.SwitchWorkspace)
		auth.POST("/invitations/:token/accept", middlewares.RequireAuth(), handlers.AcceptInvitation)
	}

	// Workspace picker and creation sit outside the workspace scope.
	r.GET("/workspaces", middlewares.RequireAuth(), handlers.ListMyWorkspaces)
	r.POST("/workspaces", middlewares.RequireAuth(), handlers.CreateWorkspace)

	api := r.Group("/api/v1", middlewares.RequireAuth(), middlewares.WorkspaceMiddleware())

	workspace := api.Group("/workspace")
	{
		workspace.GET("", handlers.GetCurrentWorkspace)
		workspace.PUT("/settings", middlewares.RequirePage("settings"), handlers.UpdateWorkspaceSettings)
		workspace.POST("/change-plan", middlewares.RequirePermission(models.AccessTypeFeature, "change-plan"), handlers.ChangeSubscriptionPlan)

		workspace.GET("/invitations", middlewares.RequirePermission(models.AccessTypeFeature, "invite-member"), handlers.ListInvitations)
		workspace.POST("/invitations", middlewares.RequirePermission(models.AccessTypeFeature, "invite-member"), handlers.InviteMember)
		workspace.DELETE("/invitations/:id", middlewares.RequirePermission(models.AccessTypeFeature, "invite-member"), handlers.CancelInvitation)

		workspace.GET("/members", handlers.ListMembers)
		workspace.DELETE("/members/:id", middlewares.RequirePermission(models.AccessTypeFeature, "remove-member"), handlers.RemoveMember)
		workspace.POST("/members/:id/suspend", middlewares.RequirePermission(models.AccessTypeFeature, "remove-member"), handlers.SuspendMember)

		workspace.GET("/permissions", middlewares.RequirePage("settings"), handlers.ListAccessControls)
		workspace.POST("/permissions", middlewares.RequirePage("settings"), handlers.GrantAccess)
		workspace.DELETE("/permissions/:id", middlewares.RequirePage("settings"), handlers.RevokeAccess)
	}

	reference := api.Group("", middlewares.RequirePage("settings"))
	{
		reference.POST("/statuses", handlers.CreateStatus)
		reference.POST("/departments", handlers.CreateDepartment)
		reference.POST("/departments/:id/toggle-active", handlers.ToggleDepartmentActive)
		reference.PUT("/workflows/:id", handlers.UpdateWorkflow)
	}
	api.GET("/statuses", handlers.ListStatuses)
	api.GET("/departments", handlers.ListDepartments)
	api.GET("/workflows", handlers.ListWorkflows)

	items := api.Group("/items", middlewares.RequirePage("items"))
	{
		items.GET("", handlers.ListItems)
		items.GET("/:id", handlers.GetItem)
		items.POST("", handlers.CreateItem)
		items.PUT("/:id", handlers.UpdateItem)
		items.DELETE("/:id", handlers.DeleteItem)
		items.POST("/:id/toggle-active", handlers.ToggleItemActive)
		items.GET("/:id/tags", handlers.TagsForItem)
	}
	itemTags := api.Group("/item-tags", middlewares.RequirePage("items"))
	{
		itemTags.GET("", handlers.ListItemTags)
		itemTags.POST("", handlers.CreateItemTag)
		itemTags.POST("/:id/items/:itemId", handlers.AssignItemTag)
		itemTags.DELETE("/:id/items/:itemId", handlers.UnassignItemTag)
	}

	factories := api.Group("/factories", middlewares.RequirePage("factories"))
	{
		factories.GET("", handlers.ListFactories)
		factories.POST("", handlers.CreateFactory)
		factories.DELETE("/:id", handlers.DeleteFactory)
	}
	sections := api.Group("/factory-sections", middlewares.RequirePage("factories"))
	{
		sections.GET("", handlers.ListFactorySections)
		sections.POST("", handlers.CreateFactorySection)
	}

	machines := api.Group("/machines", middlewares.RequirePage("machines"))
	{
		machines.GET("", handlers.ListMachines)
		machines.GET("/:id", handlers.GetMachine)
		machines.POST("", handlers.CreateMachine)
		machines.DELETE("/:id", handlers.DeleteMachine)
		machines.POST("/:id/events", handlers.RecordMachineEvent)
		machines.GET("/:id/events", handlers.ListMachineEvents)
	}

	projects := api.Group("/projects", middlewares.RequirePage("projects"))
	{
		projects.GET("", handlers.ListProjects)
		projects.POST("", handlers.CreateProject)
		projects.DELETE("/:id", handlers.DeleteProject)
		projects.GET("/:id/components", handlers.ListProjectComponents)
	}
	api.POST("/project-components", middlewares.RequirePage("projects"), handlers.CreateProjectComponent)

	inventory := api.Group("/inventory", middlewares.RequirePage("inventory"))
	{
		inventory.GET("/ledgers/:kind/levels", handlers.ListStockLevels)
		inventory.GET("/ledgers/:kind/level", handlers.GetStockLevel)
		inventory.GET("/ledgers/:kind/entries", handlers.ListLedgerEntries)
		inventory.GET("/ledgers/:kind/export", handlers.ExportLedger)
		inventory.POST("/ledgers/:kind/entries", handlers.RecordManualEntry)
		inventory.PATCH("/ledgers/:kind/entries/:id/notes", handlers.UpdateLedgerNotes)
		inventory.GET("/ledgers/:kind/verify", handlers.VerifyLedgerKey)
		inventory.POST("/transfers", handlers.TransferStock)
		inventory.GET("/reconcile", handlers.ReconcileWorkspace)
	}

	orders := api.Group("/orders", middlewares.RequirePage("orders"))
	{
		orders.GET("", handlers.ListOrders)
		orders.GET("/:id", handlers.GetOrder)
		orders.POST("", handlers.CreateOrder)
		orders.DELETE("/:id", handlers.DeleteOrder)
		orders.POST("/:id/advance", handlers.AdvanceOrder)
		orders.POST("/:id/revert", handlers.RevertOrder)
		orders.GET("/:id/part-logs", handlers.ListOrderPartLogs)
	}
	api.POST("/order-items/:itemId/approvals", middlewares.RequirePage("orders"), handlers.FlipOrderItemApproval)
	// Pinning a status skips side effects entirely; its own permission.
	api.POST("/orders/:id/status",
		middlewares.RequirePermission(models.AccessTypeManageOrderStatus, "set-status"),
		handlers.SetOrderStatus)

	sales := api.Group("/sales", middlewares.RequirePage("sales"))
	{
		sales.GET("/orders", handlers.ListSalesOrders)
		sales.GET("/orders/:id", handlers.GetSalesOrder)
		sales.POST("/orders", handlers.CreateSalesOrder)
		sales.GET("/deliveries", handlers.ListSalesDeliveries)
		sales.GET("/deliveries/:id", handlers.GetSalesDelivery)
		sales.POST("/deliveries", handlers.CreateSalesDelivery)
		sales.POST("/deliveries/:id/confirm", handlers.ConfirmSalesDelivery)
	}

	accounts := api.Group("/accounts", middlewares.RequirePage("accounts"))
	{
		accounts.GET("", handlers.ListAccounts)
		accounts.GET("/:id", handlers.GetAccount)
		accounts.POST("", handlers.CreateAccount)
		accounts.PUT("/:id", handlers.UpdateAccount)
		accounts.POST("/:id/toggle-active", handlers.ToggleAccountActive)
	}
	accountTags := api.Group("/account-tags", middlewares.RequirePage("accounts"))
	{
		accountTags.GET("", handlers.ListAccountTags)
		accountTags.POST("", handlers.CreateAccountTag)
		accountTags.POST("/:id/accounts/:accountId", handlers.AssignAccountTag)
		accountTags.DELETE("/:id/accounts/:accountId", handlers.UnassignAccountTag)
	}

	invoices := api.Group("/invoices", middlewares.RequirePage("accounts"))
	{
		invoices.GET("", handlers.ListAccountInvoices)
		invoices.GET("/:id", handlers.GetAccountInvoice)
		invoices.POST("", handlers.CreateAccountInvoice)
		invoices.GET("/:id/payments", handlers.ListInvoicePayments)
	}
	api.POST("/invoice-payments", middlewares.RequirePage("accounts"), handlers.RecordInvoicePayment)

	production := api.Group("/production", middlewares.RequirePage("production"))
	{
		production.GET("/formulas", handlers.ListProductionFormulas)
		production.GET("/formulas/:id", handlers.GetProductionFormula)
		production.POST("/formulas", handlers.CreateProductionFormula)
		production.GET("/batches", handlers.ListProductionBatches)
		production.GET("/batches/:id", handlers.GetProductionBatch)
		production.POST("/batches", handlers.CreateProductionBatch)
		production.POST("/batches/:id/start", handlers.StartProductionBatch)
		production.POST("/batches/:id/cancel", handlers.CancelProductionBatch)
		production.POST("/batches/:id/complete", handlers.CompleteProductionBatch)
	}
}

// runSweeps keeps the periodic maintenance loops alive until shutdown.
// Each run takes a redis lock so a fleet of replicas sweeps once.
func runSweeps(ctx context.Context, logger *logrus.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := workflow.SweepInvitations(ctx, logger); err != nil {
				config.LogError(logger, "server.go", "runSweeps", "workflow.SweepInvitations", nil, err)
			}
			if err := workflow.ResetMonthlyOrderCounters(ctx, logger); err != nil {
				config.LogError(logger, "server.go", "runSweeps", "workflow.ResetMonthlyOrderCounters", nil, err)
			}
		}
	}
}

func main() {
	settings := config.GetSettings()
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if settings.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open the port first so orchestrator health probes pass; app routes
	// answer 503 until the database and redis are connected.
	r := gin.New()
	r.Use(middlewares.RequestIdMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(buildCors(settings))
	r.Use(middlewares.AuthMiddleware())
	r.Use(gin.Recovery())
	registerRoutes(r)

	srv := &http.Server{
		Addr:    ":" + settings.Port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can block tables with DDL; allow running migrations as
	// a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	if _, err := models.SeedDefaultSubscriptionPlan(context.Background()); err != nil {
		config.LogError(logger, "server.go", "main", "models.SeedDefaultSubscriptionPlan", nil, err)
	}

	sweepCtx, cancelSweeps := context.WithCancel(context.Background())
	defer cancelSweeps()
	go runSweeps(sweepCtx, logger)

	logger.WithFields(logrus.Fields{
		"port":        settings.Port,
		"environment": settings.Environment,
	}).Info("server started")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	cancelSweeps()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.LogError(logger, "server.go", "main", "srv.Shutdown", nil, err)
	}
	logger.Info("server stopped")
}
