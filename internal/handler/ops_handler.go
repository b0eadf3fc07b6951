package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkc-crm/campaign-sync-api/internal/service"
	"github.com/nkc-crm/campaign-sync-api/pkg/response"
)

// OpsHandler exposes the operational surface of the status engine and the
// change feed dispatcher.
type OpsHandler struct {
	statusEngine *service.ScheduleStatusService
	changeFeed   *service.ChangeFeedService
}

// NewOpsHandler constructs handler.
func NewOpsHandler(statusEngine *service.ScheduleStatusService, changeFeed *service.ChangeFeedService) *OpsHandler {
	return &OpsHandler{statusEngine: statusEngine, changeFeed: changeFeed}
}

// ReconcileSchedules godoc
// @Summary Manually reconcile all department schedule statuses
// @Tags Ops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ops/schedules/reconcile [post]
func (h *OpsHandler) ReconcileSchedules(c *gin.Context) {
	result, err := h.statusEngine.ReconcileAllStatuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RepairCampaignSchedules godoc
// @Summary Demote scheduled campaigns that lost their time anchor
// @Tags Ops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ops/campaigns/repair-schedules [post]
func (h *OpsHandler) RepairCampaignSchedules(c *gin.Context) {
	result, err := h.statusEngine.RepairOrphanedCampaigns(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ScheduleStatusStats godoc
// @Summary Count department schedules per status
// @Tags Ops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ops/schedules/status-stats [get]
func (h *OpsHandler) ScheduleStatusStats(c *gin.Context) {
	stats, err := h.statusEngine.StatusStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// DispatcherStatus godoc
// @Summary Inspect the change feed dispatcher
// @Tags Ops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ops/dispatcher/status [get]
func (h *OpsHandler) DispatcherStatus(c *gin.Context) {
	status, err := h.changeFeed.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// DispatcherReprocess godoc
// @Summary Reset the change feed cursor and reprocess one batch
// @Tags Ops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ops/dispatcher/reprocess [post]
func (h *OpsHandler) DispatcherReprocess(c *gin.Context) {
	if err := h.changeFeed.ForceProcessAll(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.changeFeed.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// DispatcherFlush godoc
// @Summary Force-flush all pending realtime notification queues
// @Tags Ops
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ops/dispatcher/flush [post]
func (h *OpsHandler) DispatcherFlush(c *gin.Context) {
	h.changeFeed.FlushAllQueues()
	status, err := h.changeFeed.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
