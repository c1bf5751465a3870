package model

import "fmt"

// Frequency is the recurrence unit of a scheduled campaign.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ScheduleSettings is the recurrence configuration embedded in a campaign
// when its type is scheduled. StartTime/EndTime are calling-window clock
// times ("HH:MM"); DaysOfWeek applies to weekly recurrence only, DayOfMonth
// and MonthOfYear to monthly only.
type ScheduleSettings struct {
	Frequency   Frequency `json:"frequency"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time,omitempty"`
	Timezone    string    `json:"timezone"`
	DaysOfWeek  []int     `json:"days_of_week,omitempty"`
	DayOfMonth  int       `json:"day_of_month,omitempty"`
	MonthOfYear int       `json:"month_of_year,omitempty"`
}

// DefaultTimezone is applied when the caller leaves the timezone blank.
const DefaultTimezone = "UTC"

// Validate checks the recurrence fields. EndTime is optional throughout.
func (s *ScheduleSettings) Validate() error {
	switch s.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", s.Frequency)}
	}
	if s.StartTime == "" {
		return &ValidationError{Field: "start_time", Reason: "required for scheduled campaigns"}
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 {
			return &ValidationError{Field: "days_of_week", Reason: fmt.Sprintf("weekday index %d out of range", d)}
		}
	}
	if s.DayOfMonth != 0 && (s.DayOfMonth < 1 || s.DayOfMonth > 31) {
		return &ValidationError{Field: "day_of_month", Reason: "must be between 1 and 31"}
	}
	if s.MonthOfYear != 0 && (s.MonthOfYear < 1 || s.MonthOfYear > 12) {
		return &ValidationError{Field: "month_of_year", Reason: "must be between 1 and 12"}
	}
	return nil
}
