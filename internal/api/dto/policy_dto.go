package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// PolicyRequest payload for creating or updating a policy.
type PolicyRequest struct {
	Name                  string                `json:"name"`
	Description           string                `json:"description"`
	Priority              domain.TicketPriority `json:"priority"`
	ResponseTimeMinutes   int                   `json:"response_time_minutes"`
	ResolutionTimeMinutes int                   `json:"resolution_time_minutes"`
	EscalationTimeMinutes *int                  `json:"escalation_time_minutes"`
	BusinessHoursOnly     bool                  `json:"business_hours_only"`
	IsActive              bool                  `json:"is_active"`
}

// SetActiveRequest payload.
type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// BusinessHoursRequest payload replaces the weekly rules.
type BusinessHoursRequest struct {
	Rules []DayRuleRequest `json:"rules"`
}

// DayRuleRequest is one weekday window.
type DayRuleRequest struct {
	DayOfWeek    int    `json:"day_of_week"`
	IsWorkingDay bool   `json:"is_working_day"`
	StartTime    string `json:"start_time"` // "09:00"
	EndTime      string `json:"end_time"`   // "17:00"
}

// HolidayRequest payload.
type HolidayRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"` // "2026-12-25"
	IsRecurring bool   `json:"is_recurring"`
}

// DayRuleResponse response.
type DayRuleResponse struct {
	DayOfWeek    int    `json:"day_of_week"`
	IsWorkingDay bool   `json:"is_working_day"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

// HolidayResponse response.
type HolidayResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	IsRecurring bool      `json:"is_recurring"`
	CreatedAt   time.Time `json:"created_at"`
}
