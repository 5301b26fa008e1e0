package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardpay-recon/internal/scheduler"
	"cardpay-recon/pkg/logger"
	"cardpay-recon/pkg/response"
)

// SchedulerHandler exposes a manual trigger for the daily status batch.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

func NewSchedulerHandler(s *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// Run godoc
// @Summary Run both scheduler passes now
// @Description Advances PENDING and PROCESSING payment statuses based on today's date
// @Tags scheduler
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/scheduler/run [post]
func (h *SchedulerHandler) Run(c *gin.Context) {
	result, err := h.scheduler.Run()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Scheduler run failed")
		response.InternalError(c, "Scheduler run failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Scheduler run completed", result)
}
