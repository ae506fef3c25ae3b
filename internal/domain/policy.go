package domain

import (
	"sort"
	"time"
)

// SLAPolicy defines response/resolution targets for a priority.
// At most one active policy may exist per priority.
type SLAPolicy struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	Description           string         `json:"description"`
	Priority              TicketPriority `json:"priority"`
	ResponseTimeMinutes   int            `json:"response_time_minutes"`
	ResolutionTimeMinutes int            `json:"resolution_time_minutes"`
	EscalationTimeMinutes *int           `json:"escalation_time_minutes,omitempty"`
	BusinessHoursOnly     bool           `json:"business_hours_only"`
	IsActive              bool           `json:"is_active"`
	CreatedBy             *string        `json:"created_by,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// SortPoliciesByPriority orders policies most urgent first using the
// priority rank mapping. Ordering lives here so no query needs to spell
// out the priority ladder.
func SortPoliciesByPriority(policies []SLAPolicy) {
	sort.SliceStable(policies, func(i, j int) bool {
		return policies[i].Priority.Rank() < policies[j].Priority.Rank()
	})
}
