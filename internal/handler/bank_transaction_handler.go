package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cardpay-recon/internal/domain"
	"cardpay-recon/internal/service"
	"cardpay-recon/pkg/logger"
	"cardpay-recon/pkg/response"
)

type BankTransactionHandler struct {
	service service.BankTransactionService
}

func NewBankTransactionHandler(service service.BankTransactionService) *BankTransactionHandler {
	return &BankTransactionHandler{service: service}
}

type CreateBankTransactionRequest struct {
	ID          string `json:"id" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type BulkCreateBankTransactionRequest struct {
	Transactions []CreateBankTransactionRequest `json:"transactions" binding:"required,min=1"`
}

type ImportBankTransactionsRequest struct {
	FilePath string `json:"file_path" binding:"required"`
}

// Create godoc
// @Summary Ingest an observed bank transaction
// @Tags bank-transactions
// @Accept json
// @Produce json
// @Param transaction body CreateBankTransactionRequest true "Bank transaction"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/bank-transactions [post]
func (h *BankTransactionHandler) Create(c *gin.Context) {
	var req CreateBankTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	tx, err := h.parse(req)
	if err != nil {
		response.BadRequest(c, "Invalid bank transaction", err.Error())
		return
	}

	if err := h.service.Create(tx); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create bank transaction")
		response.InternalError(c, "Failed to create bank transaction", err.Error())
		return
	}

	response.Success(c, http.StatusCreated, "Bank transaction created successfully", tx)
}

// BulkCreate godoc
// @Summary Ingest multiple bank transactions
// @Tags bank-transactions
// @Accept json
// @Produce json
// @Param transactions body BulkCreateBankTransactionRequest true "Bank transactions"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/bank-transactions/bulk [post]
func (h *BankTransactionHandler) BulkCreate(c *gin.Context) {
	var req BulkCreateBankTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	transactions := make([]domain.BankTransaction, 0, len(req.Transactions))
	for _, r := range req.Transactions {
		tx, err := h.parse(r)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("transaction_id", r.ID).Warn("Invalid bank transaction, skipping")
			continue
		}
		transactions = append(transactions, *tx)
	}

	if err := h.service.BulkCreate(transactions); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to bulk create bank transactions")
		response.InternalError(c, "Failed to create bank transactions", err.Error())
		return
	}

	response.Success(c, http.StatusCreated, "Bank transactions created successfully", gin.H{"count": len(transactions)})
}

// Import godoc
// @Summary Import bank transactions from a CSV export
// @Tags bank-transactions
// @Accept json
// @Produce json
// @Param request body ImportBankTransactionsRequest true "Import request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/bank-transactions/import [post]
func (h *BankTransactionHandler) Import(c *gin.Context) {
	var req ImportBankTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	imported, err := h.service.ImportCSV(req.FilePath)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("file", req.FilePath).Error("Import failed")
		response.InternalError(c, "Import failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Bank transactions imported successfully", gin.H{"imported": imported})
}

// List godoc
// @Summary List bank transactions in a date range
// @Tags bank-transactions
// @Produce json
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/bank-transactions [get]
func (h *BankTransactionHandler) List(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		response.BadRequest(c, "Invalid start_date format", "Use YYYY-MM-DD format")
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		response.BadRequest(c, "Invalid end_date format", "Use YYYY-MM-DD format")
		return
	}

	transactions, err := h.service.FindByDateRange(start, end)
	if err != nil {
		response.InternalError(c, "Failed to list bank transactions", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Bank transactions retrieved successfully", transactions)
}

func (h *BankTransactionHandler) parse(req CreateBankTransactionRequest) (*domain.BankTransaction, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}
	return domain.NewBankTransaction(req.ID, date, decimal.NewFromInt(req.Amount), req.Description)
}
