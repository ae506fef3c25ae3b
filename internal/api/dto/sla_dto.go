package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// AxisStatusResponse is one axis of a ticket's SLA indicator.
type AxisStatusResponse struct {
	Status           sla.AxisStatus `json:"status"`
	Progress         int            `json:"progress"`
	MinutesRemaining *int           `json:"minutes_remaining,omitempty"`
	TimeRemaining    string         `json:"time_remaining"`
	DueAt            time.Time      `json:"due_at"`
	RecordedAt       *time.Time     `json:"recorded_at,omitempty"`
}

// SLAStatusResponse is the full SLA indicator for one ticket.
type SLAStatusResponse struct {
	TicketID   string             `json:"ticket_id"`
	PolicyID   string             `json:"policy_id"`
	Response   AxisStatusResponse `json:"response"`
	Resolution AxisStatusResponse `json:"resolution"`
	Escalation *EscalationStatus  `json:"escalation,omitempty"`
}

// EscalationStatus reports the informational escalation deadline.
type EscalationStatus struct {
	DueAt       time.Time  `json:"due_at"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`
}

// NewSLAStatusResponse maps a tracking row and its classification.
func NewSLAStatusResponse(tracking *domain.SLATracking, status *sla.Status) SLAStatusResponse {
	resp := SLAStatusResponse{
		TicketID: tracking.TicketID,
		PolicyID: tracking.PolicyID,
		Response: AxisStatusResponse{
			Status:           status.Response.Status,
			Progress:         status.Response.Progress,
			MinutesRemaining: status.Response.MinutesRemaining,
			TimeRemaining:    sla.FormatMinutesRemaining(status.Response.MinutesRemaining),
			DueAt:            tracking.ResponseDueAt,
			RecordedAt:       tracking.FirstResponseAt,
		},
		Resolution: AxisStatusResponse{
			Status:           status.Resolution.Status,
			Progress:         status.Resolution.Progress,
			MinutesRemaining: status.Resolution.MinutesRemaining,
			TimeRemaining:    sla.FormatMinutesRemaining(status.Resolution.MinutesRemaining),
			DueAt:            tracking.ResolutionDueAt,
			RecordedAt:       tracking.ResolvedAt,
		},
	}
	if tracking.EscalationDueAt != nil {
		resp.Escalation = &EscalationStatus{
			DueAt:       *tracking.EscalationDueAt,
			EscalatedAt: tracking.EscalatedAt,
		}
	}
	return resp
}
