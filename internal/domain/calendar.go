package domain

import "time"

// DayRule configures one weekday of the business calendar.
// StartMinute/EndMinute are wall-clock minutes from midnight; the working
// window is [StartMinute, EndMinute).
type DayRule struct {
	DayOfWeek    int  `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	IsWorkingDay bool `json:"is_working_day"`
	StartMinute  int  `json:"start_minute"`
	EndMinute    int  `json:"end_minute"`
}

// WorkingMinutes returns the length of the day's window.
func (d DayRule) WorkingMinutes() int {
	if !d.IsWorkingDay || d.EndMinute <= d.StartMinute {
		return 0
	}
	return d.EndMinute - d.StartMinute
}

// Holiday removes a date from the business calendar. Recurring holidays
// match their month/day every year.
type Holiday struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	IsRecurring bool      `json:"is_recurring"`
	CreatedAt   time.Time `json:"created_at"`
}
