package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

// Window calculation for the two schedule config formats. All functions are
// pure; "now" is always passed in so the engine and tests control the clock.
//
// daily_dates entries default a missing year/month to the evaluation moment,
// not the authoring moment, so a config without an explicit year drifts
// across periods. Preserved as-is pending product review.

const (
	dailyWindowStartHour   = 8
	dailyWindowStartMinute = 0
	dailyWindowEndHour     = 17
	dailyWindowEndMinute   = 45
)

// CalculateDailyDatesWindow resolves a daily_dates config into the absolute
// window spanning the earliest date at 08:00 to the latest date at 17:45.
func CalculateDailyDatesWindow(cfg models.ScheduleConfig, now time.Time) (models.ScheduleWindow, error) {
	if cfg.Type != "" && cfg.Type != models.ScheduleTypeDailyDates {
		return models.ScheduleWindow{}, fmt.Errorf("config type %q does not match schedule type %q", cfg.Type, models.ScheduleTypeDailyDates)
	}
	if len(cfg.Dates) == 0 {
		return models.ScheduleWindow{}, fmt.Errorf("schedule config has no dates")
	}

	var earliest, latest time.Time
	for _, entry := range cfg.Dates {
		if entry.DayOfMonth < 1 || entry.DayOfMonth > 31 {
			return models.ScheduleWindow{}, fmt.Errorf("invalid day_of_month: %d", entry.DayOfMonth)
		}
		month := entry.Month
		if month == 0 {
			month = int(now.Month())
		}
		if month < 1 || month > 12 {
			return models.ScheduleWindow{}, fmt.Errorf("invalid month: %d", entry.Month)
		}
		year := entry.Year
		if year == 0 {
			year = now.Year()
		}

		date := time.Date(year, time.Month(month), entry.DayOfMonth, 0, 0, 0, 0, now.Location())
		if earliest.IsZero() || date.Before(earliest) {
			earliest = date
		}
		if latest.IsZero() || date.After(latest) {
			latest = date
		}
	}

	return models.ScheduleWindow{
		Start: earliest.Add(time.Duration(dailyWindowStartHour)*time.Hour + time.Duration(dailyWindowStartMinute)*time.Minute),
		End:   latest.Add(time.Duration(dailyWindowEndHour)*time.Hour + time.Duration(dailyWindowEndMinute)*time.Minute),
	}, nil
}

// CalculateHourlySlotsWindow resolves an hourly_slots config against the
// ISO week containing now: the earliest slot by (day_of_week, start_time)
// opens the window, the latest by (day_of_week, end_time) closes it. The
// window re-anchors every evaluation, which is why schedule statuses are
// reconciled periodically instead of computed once.
func CalculateHourlySlotsWindow(cfg models.ScheduleConfig, now time.Time) (models.ScheduleWindow, error) {
	if cfg.Type != "" && cfg.Type != models.ScheduleTypeHourlySlots {
		return models.ScheduleWindow{}, fmt.Errorf("config type %q does not match schedule type %q", cfg.Type, models.ScheduleTypeHourlySlots)
	}
	if len(cfg.Slots) == 0 {
		return models.ScheduleWindow{}, fmt.Errorf("schedule config has no slots")
	}

	for _, slot := range cfg.Slots {
		if slot.DayOfWeek == 0 {
			return models.ScheduleWindow{}, fmt.Errorf("slot is missing day_of_week")
		}
		// Legacy encoding: Monday=2 .. Saturday=7, Sunday unrepresentable.
		if slot.DayOfWeek < 2 || slot.DayOfWeek > 7 {
			return models.ScheduleWindow{}, fmt.Errorf("invalid day_of_week: %d", slot.DayOfWeek)
		}
		if slot.StartTime == "" {
			return models.ScheduleWindow{}, fmt.Errorf("slot is missing start_time")
		}
		if slot.EndTime == "" {
			return models.ScheduleWindow{}, fmt.Errorf("slot is missing end_time")
		}
	}

	earliest := cfg.Slots[0]
	latest := cfg.Slots[0]
	for _, slot := range cfg.Slots[1:] {
		if slot.DayOfWeek < earliest.DayOfWeek ||
			(slot.DayOfWeek == earliest.DayOfWeek && slot.StartTime < earliest.StartTime) {
			earliest = slot
		}
		if slot.DayOfWeek > latest.DayOfWeek ||
			(slot.DayOfWeek == latest.DayOfWeek && slot.EndTime > latest.EndTime) {
			latest = slot
		}
	}

	startHour, startMinute, err := parseClock(earliest.StartTime)
	if err != nil {
		return models.ScheduleWindow{}, fmt.Errorf("invalid start_time %q: %w", earliest.StartTime, err)
	}
	endHour, endMinute, err := parseClock(latest.EndTime)
	if err != nil {
		return models.ScheduleWindow{}, fmt.Errorf("invalid end_time %q: %w", latest.EndTime, err)
	}

	anchor := weekAnchor(now)
	start := anchor.AddDate(0, 0, earliest.DayOfWeek-2).
		Add(time.Duration(startHour)*time.Hour + time.Duration(startMinute)*time.Minute)
	end := anchor.AddDate(0, 0, latest.DayOfWeek-2).
		Add(time.Duration(endHour)*time.Hour + time.Duration(endMinute)*time.Minute)

	return models.ScheduleWindow{Start: start, End: end}, nil
}

// IsWithinSchedule reports whether instant falls inside the config's window,
// inclusive on both ends. Any calculation failure counts as "not within".
func IsWithinSchedule(cfg models.ScheduleConfig, scheduleType models.ScheduleType, instant time.Time) bool {
	window, err := calculateWindow(cfg, scheduleType, instant)
	if err != nil {
		return false
	}
	return !instant.Before(window.Start) && !instant.After(window.End)
}

// ScheduleWindowDetails returns the window plus deltas relative to now.
func ScheduleWindowDetails(cfg models.ScheduleConfig, scheduleType models.ScheduleType, now time.Time) (models.ScheduleWindowDetails, error) {
	window, err := calculateWindow(cfg, scheduleType, now)
	if err != nil {
		return models.ScheduleWindowDetails{}, err
	}

	details := models.ScheduleWindowDetails{
		Start:       window.Start,
		End:         window.End,
		IsActiveNow: !now.Before(window.Start) && !now.After(window.End),
	}
	if now.Before(window.Start) {
		d := window.Start.Sub(now)
		details.TimeUntilStart = &d
	}
	if now.Before(window.End) {
		d := window.End.Sub(now)
		details.TimeUntilEnd = &d
	}
	return details, nil
}

func calculateWindow(cfg models.ScheduleConfig, scheduleType models.ScheduleType, now time.Time) (models.ScheduleWindow, error) {
	switch scheduleType {
	case models.ScheduleTypeDailyDates:
		return CalculateDailyDatesWindow(cfg, now)
	case models.ScheduleTypeHourlySlots:
		return CalculateHourlySlotsWindow(cfg, now)
	default:
		return models.ScheduleWindow{}, fmt.Errorf("unknown schedule type %q", scheduleType)
	}
}

// weekAnchor returns Monday 00:00 of the week containing t, in t's location.
func weekAnchor(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7
	year, month, day := t.AddDate(0, 0, -daysFromMonday).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// parseClock parses "HH:MM" (seconds tolerated and ignored).
func parseClock(raw string) (int, int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("expected HH:MM")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minute %q", parts[1])
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("out of range")
	}
	return hour, minute, nil
}
