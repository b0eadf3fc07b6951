package dto

import (
	"time"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

// ScheduleDateRequest is one calendar date inside a daily_dates config.
type ScheduleDateRequest struct {
	DayOfMonth int `json:"day_of_month" validate:"required,min=1,max=31"`
	Month      int `json:"month" validate:"omitempty,min=1,max=12"`
	Year       int `json:"year" validate:"omitempty,min=2000"`
}

// ScheduleSlotRequest is one weekly slot inside an hourly_slots config.
type ScheduleSlotRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"required,min=2,max=7"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// ScheduleConfigRequest mirrors the stored tagged union.
type ScheduleConfigRequest struct {
	Type  string                `json:"type" validate:"required,oneof=daily_dates hourly_slots"`
	Dates []ScheduleDateRequest `json:"dates" validate:"omitempty,dive"`
	Slots []ScheduleSlotRequest `json:"slots" validate:"omitempty,dive"`
}

// CreateDepartmentScheduleRequest creates a department schedule.
type CreateDepartmentScheduleRequest struct {
	Name         string                `json:"name" validate:"required,max=255"`
	Description  *string               `json:"description"`
	ScheduleType string                `json:"schedule_type" validate:"required,oneof=daily_dates hourly_slots"`
	Config       ScheduleConfigRequest `json:"schedule_config" validate:"required"`
	DepartmentID int64                 `json:"department_id" validate:"required"`
	CreatedBy    int64                 `json:"created_by" validate:"required"`
}

// UpdateDepartmentScheduleRequest patches a department schedule. Status may
// only be set to "inactive" here; the other states belong to the engine.
type UpdateDepartmentScheduleRequest struct {
	Name        *string                `json:"name" validate:"omitempty,max=255"`
	Description *string                `json:"description"`
	Config      *ScheduleConfigRequest `json:"schedule_config"`
	Status      *string                `json:"status" validate:"omitempty,oneof=active inactive"`
}

// ListDepartmentSchedulesRequest carries list filters.
type ListDepartmentSchedulesRequest struct {
	Name         string `form:"name"`
	ScheduleType string `form:"schedule_type"`
	Status       string `form:"status"`
	DepartmentID int64  `form:"department_id"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
	Sort         string `form:"sort"`
	Order        string `form:"order"`
}

// ScheduleWindowResponse exposes the computed activation window.
type ScheduleWindowResponse struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	IsActiveNow    bool      `json:"is_active_now"`
	TimeUntilStart *int64    `json:"time_until_start_ms,omitempty"`
	TimeUntilEnd   *int64    `json:"time_until_end_ms,omitempty"`
}

// ReconcileResult reports a manual status reconciliation run.
type ReconcileResult struct {
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// OrphanRepairResult reports a manual orphan-schedule repair run.
type OrphanRepairResult struct {
	Reset int `json:"reset"`
	Total int `json:"total"`
}

// NewScheduleWindowResponse converts window details into the API shape.
func NewScheduleWindowResponse(details models.ScheduleWindowDetails) ScheduleWindowResponse {
	resp := ScheduleWindowResponse{
		Start:       details.Start,
		End:         details.End,
		IsActiveNow: details.IsActiveNow,
	}
	if details.TimeUntilStart != nil {
		ms := details.TimeUntilStart.Milliseconds()
		resp.TimeUntilStart = &ms
	}
	if details.TimeUntilEnd != nil {
		ms := details.TimeUntilEnd.Milliseconds()
		resp.TimeUntilEnd = &ms
	}
	return resp
}
