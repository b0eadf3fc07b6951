package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScheduleType discriminates the two schedule config formats.
type ScheduleType string

const (
	ScheduleTypeDailyDates  ScheduleType = "daily_dates"
	ScheduleTypeHourlySlots ScheduleType = "hourly_slots"
)

// ScheduleStatus is the lifecycle state derived by the status engine.
// Inactive is only ever set by an operator and is never overridden
// automatically.
type ScheduleStatus string

const (
	ScheduleStatusActive   ScheduleStatus = "active"
	ScheduleStatusInactive ScheduleStatus = "inactive"
	ScheduleStatusExpired  ScheduleStatus = "expired"
)

// DailyDateEntry is one concrete calendar date in a daily_dates config.
// Month and Year default to the evaluation moment when zero.
type DailyDateEntry struct {
	DayOfMonth int `json:"day_of_month"`
	Month      int `json:"month,omitempty"`
	Year       int `json:"year,omitempty"`
}

// HourlySlot is one recurring weekly slot in an hourly_slots config.
// DayOfWeek uses the legacy 2..7 encoding (Monday=2 .. Saturday=7);
// Sunday is not representable.
type HourlySlot struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ScheduleConfig is the tagged union stored as JSON on a department
// schedule. Exactly one of Dates/Slots is populated depending on Type.
type ScheduleConfig struct {
	Type  ScheduleType     `json:"type"`
	Dates []DailyDateEntry `json:"dates,omitempty"`
	Slots []HourlySlot     `json:"slots,omitempty"`
}

// Value implements driver.Valuer so the config persists as a JSON column.
func (c ScheduleConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for the JSON column.
func (c *ScheduleConfig) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = ScheduleConfig{}
		return nil
	default:
		return fmt.Errorf("unsupported schedule config source type %T", src)
	}
}

// DepartmentSchedule is a department-owned activation schedule.
type DepartmentSchedule struct {
	ID             int64          `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Description    *string        `db:"description" json:"description,omitempty"`
	ScheduleType   ScheduleType   `db:"schedule_type" json:"schedule_type"`
	Status         ScheduleStatus `db:"status" json:"status"`
	ScheduleConfig ScheduleConfig `db:"schedule_config" json:"schedule_config"`
	DepartmentID   int64          `db:"department_id" json:"department_id"`
	CreatedBy      int64          `db:"created_by" json:"created_by"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
}

// DepartmentScheduleFilter describes query params for listing schedules.
type DepartmentScheduleFilter struct {
	Name         string
	ScheduleType ScheduleType
	Status       ScheduleStatus
	DepartmentID int64
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ScheduleWindow is a concrete absolute activation window.
type ScheduleWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ScheduleWindowDetails adds convenience deltas relative to "now".
// A delta is omitted when it would be negative.
type ScheduleWindowDetails struct {
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	IsActiveNow    bool           `json:"is_active_now"`
	TimeUntilStart *time.Duration `json:"time_until_start,omitempty"`
	TimeUntilEnd   *time.Duration `json:"time_until_end,omitempty"`
}

// ScheduleStatusStats is the status breakdown across all live schedules.
type ScheduleStatusStats struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Expired  int `json:"expired"`
	Total    int `json:"total"`
}
