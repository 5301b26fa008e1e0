package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"cardpay-recon/internal/config"
	"cardpay-recon/internal/handler"
	"cardpay-recon/internal/middleware"
	"cardpay-recon/internal/repository"
	"cardpay-recon/internal/scheduler"
	"cardpay-recon/internal/service"
	"cardpay-recon/pkg/logger"
)

// @title Card Payment Reconciliation API
// @version 1.0
// @description API for reconciling card billing summaries against bank transactions and tracking payment status

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Card Payment Reconciliation Service")

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	// Repositories
	summaryRepo := repository.NewBillingSummaryRepository(db)
	bankRepo := repository.NewBankTransactionRepository(db)
	statusRepo := repository.NewPaymentStatusRepository(db)
	reconRepo := repository.NewReconciliationRepository(db)

	// Services
	summaryService := service.NewBillingSummaryService(summaryRepo)
	bankService := service.NewBankTransactionService(bankRepo, cfg.App.BatchSize)
	reconService := service.NewReconciliationService(summaryRepo, bankRepo, reconRepo, nil)
	statusService := service.NewPaymentStatusService(statusRepo, summaryRepo, nil)
	statusScheduler := scheduler.New(statusRepo, summaryRepo, nil)

	// Handlers
	summaryHandler := handler.NewBillingSummaryHandler(summaryService)
	bankHandler := handler.NewBankTransactionHandler(bankService)
	reconHandler := handler.NewReconciliationHandler(reconService)
	statusHandler := handler.NewPaymentStatusHandler(statusService)
	schedulerHandler := handler.NewSchedulerHandler(statusScheduler)

	router := setupRouter(summaryHandler, bankHandler, reconHandler, statusHandler, schedulerHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func setupRouter(
	summaryHandler *handler.BillingSummaryHandler,
	bankHandler *handler.BankTransactionHandler,
	reconHandler *handler.ReconciliationHandler,
	statusHandler *handler.PaymentStatusHandler,
	schedulerHandler *handler.SchedulerHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		summaries := v1.Group("/summaries")
		{
			summaries.POST("", summaryHandler.Create)
			summaries.GET("/:card_id/:billing_month", summaryHandler.Get)
		}
		v1.GET("/billing-month", summaryHandler.BillingMonth)

		bankTransactions := v1.Group("/bank-transactions")
		{
			bankTransactions.POST("", bankHandler.Create)
			bankTransactions.POST("/bulk", bankHandler.BulkCreate)
			bankTransactions.POST("/import", bankHandler.Import)
			bankTransactions.GET("", bankHandler.List)
		}

		reconciliations := v1.Group("/reconciliations")
		{
			reconciliations.POST("", reconHandler.Reconcile)
			reconciliations.GET("/:card_id/:billing_month", reconHandler.Get)
		}

		paymentStatus := v1.Group("/payment-status")
		{
			paymentStatus.POST("/:card_summary_id/initialize", statusHandler.Initialize)
			paymentStatus.PATCH("/:card_summary_id", statusHandler.Update)
			paymentStatus.GET("/:card_summary_id", statusHandler.Latest)
			paymentStatus.GET("/:card_summary_id/history", statusHandler.History)
		}

		v1.POST("/scheduler/run", schedulerHandler.Run)
	}

	return router
}
