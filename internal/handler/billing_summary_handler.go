package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cardpay-recon/internal/domain"
	"cardpay-recon/internal/service"
	"cardpay-recon/pkg/logger"
	"cardpay-recon/pkg/response"
)

type BillingSummaryHandler struct {
	service service.BillingSummaryService
}

func NewBillingSummaryHandler(service service.BillingSummaryService) *BillingSummaryHandler {
	return &BillingSummaryHandler{service: service}
}

type CreateSummaryRequest struct {
	CardID           string   `json:"card_id" binding:"required"`
	CardName         string   `json:"card_name" binding:"required"`
	BillingMonth     string   `json:"billing_month" binding:"required"`
	ClosingDay       int      `json:"closing_day" binding:"min=0,max=31"`
	PaymentDay       int      `json:"payment_day" binding:"required,min=1,max=31"`
	NetPaymentAmount int64    `json:"net_payment_amount" binding:"min=0"`
	TransactionIDs   []string `json:"transaction_ids"`
}

// Create godoc
// @Summary Ingest a monthly billing summary
// @Description Derives the closing and payment dates from the card's cycle configuration
// @Tags billing-summaries
// @Accept json
// @Produce json
// @Param request body CreateSummaryRequest true "Billing summary"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/summaries [post]
func (h *BillingSummaryHandler) Create(c *gin.Context) {
	var req CreateSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	summary, err := h.service.Create(
		req.CardID,
		req.CardName,
		req.BillingMonth,
		req.ClosingDay,
		req.PaymentDay,
		decimal.NewFromInt(req.NetPaymentAmount),
		req.TransactionIDs,
	)
	if err != nil {
		response.BadRequest(c, "Failed to create billing summary", err.Error())
		return
	}

	response.Success(c, http.StatusCreated, "Billing summary created successfully", summary)
}

// Get godoc
// @Summary Get a billing summary
// @Tags billing-summaries
// @Produce json
// @Param card_id path string true "Card ID"
// @Param billing_month path string true "Billing month (YYYY-MM)"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/summaries/{card_id}/{billing_month} [get]
func (h *BillingSummaryHandler) Get(c *gin.Context) {
	summary, err := h.service.Get(c.Param("card_id"), c.Param("billing_month"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, "Failed to get billing summary", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Billing summary retrieved successfully", summary)
}

// BillingMonth godoc
// @Summary Compute the billing month for a transaction date
// @Tags billing-summaries
// @Produce json
// @Param date query string true "Transaction date (YYYY-MM-DD)"
// @Param closing_day query int true "Closing day (0-31, 0 and 31 mean end of month)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/billing-month [get]
func (h *BillingSummaryHandler) BillingMonth(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.BadRequest(c, "Invalid date format", "Use YYYY-MM-DD format")
		return
	}

	closingDay, err := strconv.Atoi(c.Query("closing_day"))
	if err != nil {
		response.BadRequest(c, "Invalid closing_day", "Must be an integer 0-31")
		return
	}

	billingMonth, err := h.service.BillingMonthFor(date, closingDay)
	if err != nil {
		response.BadRequest(c, "Invalid closing_day", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Billing month computed", gin.H{"billing_month": billingMonth})
}
