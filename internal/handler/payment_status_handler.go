package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardpay-recon/internal/domain"
	"cardpay-recon/internal/service"
	"cardpay-recon/pkg/logger"
	"cardpay-recon/pkg/response"
)

type PaymentStatusHandler struct {
	service service.PaymentStatusService
}

func NewPaymentStatusHandler(service service.PaymentStatusService) *PaymentStatusHandler {
	return &PaymentStatusHandler{service: service}
}

type UpdateStatusRequest struct {
	Status           string `json:"status" binding:"required"`
	UpdatedBy        string `json:"updated_by" binding:"required,oneof=system user"`
	Reason           string `json:"reason"`
	Notes            string `json:"notes"`
	ReconciliationID string `json:"reconciliation_id"`
}

// Initialize godoc
// @Summary Create the initial PENDING status for a billing summary
// @Tags payment-status
// @Produce json
// @Param card_summary_id path string true "Billing summary ID"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/payment-status/{card_summary_id}/initialize [post]
func (h *PaymentStatusHandler) Initialize(c *gin.Context) {
	cardSummaryID := c.Param("card_summary_id")

	record, err := h.service.Initialize(cardSummaryID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Payment status initialized", record)
}

// Update godoc
// @Summary Transition the payment status
// @Description Append a new status record if the transition is allowed
// @Tags payment-status
// @Accept json
// @Produce json
// @Param card_summary_id path string true "Billing summary ID"
// @Param request body UpdateStatusRequest true "Status update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/payment-status/{card_summary_id} [patch]
func (h *PaymentStatusHandler) Update(c *gin.Context) {
	cardSummaryID := c.Param("card_summary_id")

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	record, err := h.service.Update(
		cardSummaryID,
		domain.PaymentStatus(req.Status),
		domain.UpdatedBy(req.UpdatedBy),
		domain.TransitionOptions{
			Reason:           req.Reason,
			Notes:            req.Notes,
			ReconciliationID: req.ReconciliationID,
		},
	)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Payment status updated", record)
}

// Latest godoc
// @Summary Get the current payment status
// @Tags payment-status
// @Produce json
// @Param card_summary_id path string true "Billing summary ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/payment-status/{card_summary_id} [get]
func (h *PaymentStatusHandler) Latest(c *gin.Context) {
	record, err := h.service.Latest(c.Param("card_summary_id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Payment status retrieved", record)
}

// History godoc
// @Summary Get the full status history
// @Tags payment-status
// @Produce json
// @Param card_summary_id path string true "Billing summary ID"
// @Success 200 {object} response.Response
// @Router /api/v1/payment-status/{card_summary_id}/history [get]
func (h *PaymentStatusHandler) History(c *gin.Context) {
	history, err := h.service.History(c.Param("card_summary_id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Payment status history retrieved", history)
}

func (h *PaymentStatusHandler) renderError(c *gin.Context, err error) {
	var invalid *domain.InvalidTransitionError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.As(err, &invalid):
		response.UnprocessableEntity(c, "INVALID_TRANSITION", "Status transition not allowed", invalid.Error())
	default:
		logger.GetLogger().WithError(err).Error("Payment status operation failed")
		response.InternalError(c, "Payment status operation failed", err.Error())
	}
}
