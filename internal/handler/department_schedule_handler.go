package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nkc-crm/campaign-sync-api/internal/dto"
	"github.com/nkc-crm/campaign-sync-api/internal/service"
	appErrors "github.com/nkc-crm/campaign-sync-api/pkg/errors"
	"github.com/nkc-crm/campaign-sync-api/pkg/response"
)

// DepartmentScheduleHandler manages department schedule endpoints.
type DepartmentScheduleHandler struct {
	service *service.DepartmentScheduleService
}

// NewDepartmentScheduleHandler constructs handler.
func NewDepartmentScheduleHandler(svc *service.DepartmentScheduleService) *DepartmentScheduleHandler {
	return &DepartmentScheduleHandler{service: svc}
}

// List godoc
// @Summary List department schedules
// @Tags DepartmentSchedules
// @Produce json
// @Param name query string false "Filter by name (partial match)"
// @Param schedule_type query string false "Filter by schedule type"
// @Param status query string false "Filter by status"
// @Param department_id query int false "Filter by department"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /department-schedules [get]
func (h *DepartmentScheduleHandler) List(c *gin.Context) {
	var req dto.ListDepartmentSchedulesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	schedules, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Get godoc
// @Summary Get a department schedule
// @Tags DepartmentSchedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /department-schedules/{id} [get]
func (h *DepartmentScheduleHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	schedule, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create a department schedule
// @Tags DepartmentSchedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateDepartmentScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /department-schedules [post]
func (h *DepartmentScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateDepartmentScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update a department schedule
// @Tags DepartmentSchedules
// @Accept json
// @Produce json
// @Param id path int true "Schedule ID"
// @Param payload body dto.UpdateDepartmentScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /department-schedules/{id} [put]
func (h *DepartmentScheduleHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateDepartmentScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete a department schedule
// @Tags DepartmentSchedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 204
// @Router /department-schedules/{id} [delete]
func (h *DepartmentScheduleHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Window godoc
// @Summary Get the computed activation window of a schedule
// @Tags DepartmentSchedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /department-schedules/{id}/window [get]
func (h *DepartmentScheduleHandler) Window(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	details, err := h.service.WindowDetails(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewScheduleWindowResponse(details), nil)
}

func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id parameter")
	}
	return id, nil
}
