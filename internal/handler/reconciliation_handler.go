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

type ReconciliationHandler struct {
	service service.ReconciliationService
}

func NewReconciliationHandler(service service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

type ReconcileRequest struct {
	CardID       string `json:"card_id" binding:"required"`
	BillingMonth string `json:"billing_month" binding:"required"`
}

// Reconcile godoc
// @Summary Reconcile a card's billing month
// @Description Match the billing summary against observed bank transactions
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param request body ReconcileRequest true "Reconciliation request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/reconciliations [post]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	rec, err := h.service.Reconcile(req.CardID, req.BillingMonth)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Reconciliation completed successfully", rec)
}

// Get godoc
// @Summary Get a stored reconciliation
// @Tags reconciliation
// @Produce json
// @Param card_id path string true "Card ID"
// @Param billing_month path string true "Billing month (YYYY-MM)"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reconciliations/{card_id}/{billing_month} [get]
func (h *ReconciliationHandler) Get(c *gin.Context) {
	cardID := c.Param("card_id")
	billingMonth := c.Param("billing_month")

	rec, err := h.service.Get(cardID, billingMonth)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Reconciliation retrieved successfully", rec)
}

func (h *ReconciliationHandler) renderError(c *gin.Context, err error) {
	var ambiguous *domain.AmbiguousMatchError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrFutureDate):
		response.BadRequest(c, "Reconciliation not yet possible", err.Error())
	case errors.As(err, &ambiguous):
		response.Conflict(c, "AMBIGUOUS_MATCH", "Multiple equally close candidates, resolve manually", ambiguous.Candidates)
	default:
		logger.GetLogger().WithError(err).Error("Reconciliation failed")
		response.InternalError(c, "Reconciliation failed", err.Error())
	}
}
