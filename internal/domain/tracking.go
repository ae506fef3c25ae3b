package domain

import "time"

// SLATracking is the per-ticket record of computed deadlines and actual
// response/resolution events. FirstResponseAt and ResolvedAt are set
// exactly once and never overwritten.
type SLATracking struct {
	ID                    string
	TicketID              string
	PolicyID              string
	CreatedAt             time.Time // ticket creation instant, the SLA clock origin
	ResponseDueAt         time.Time
	FirstResponseAt       *time.Time
	ResponseSLAMet        *bool
	ResponseTimeMinutes   *int
	ResolutionDueAt       time.Time
	ResolvedAt            *time.Time
	ResolutionSLAMet      *bool
	ResolutionTimeMinutes *int
	EscalationDueAt       *time.Time
	EscalatedAt           *time.Time
}

// TrackedTicket joins a tracking row with the ticket columns the bulk
// breach/at-risk listings display.
type TrackedTicket struct {
	Tracking     SLATracking
	Title        string
	Status       TicketStatus
	Priority     TicketPriority
	AssignedTo   *string
	AssigneeName *string
}

// SLAMetrics aggregates compliance over a ticket-creation window.
type SLAMetrics struct {
	TotalTickets             int     `json:"total_tickets"`
	ResponseMet              int     `json:"response_met"`
	ResponseBreached         int     `json:"response_breached"`
	ResponseComplianceRate   float64 `json:"response_compliance_rate"`
	ResolutionMet            int     `json:"resolution_met"`
	ResolutionBreached       int     `json:"resolution_breached"`
	ResolutionComplianceRate float64 `json:"resolution_compliance_rate"`
	AvgResponseMinutes       float64 `json:"avg_response_minutes"`
	AvgResolutionMinutes     float64 `json:"avg_resolution_minutes"`
	ActiveResponseBreaches   int     `json:"active_response_breaches"`
	ActiveResolutionBreaches int     `json:"active_resolution_breaches"`
}
