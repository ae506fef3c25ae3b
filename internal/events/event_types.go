package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventCommentAdded        EventType = "comment_added"
	EventTicketEscalated     EventType = "ticket_escalated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus   domain.TicketStatus `json:"old_status"`
	NewStatus   domain.TicketStatus `json:"new_status"`
	TicketTitle string              `json:"ticket_title"`
	NotifyUser  string              `json:"notify_user"`
}

// AssignedPayload payload.
type AssignedPayload struct {
	OldAssignee *string `json:"old_assignee,omitempty"`
	NewAssignee *string `json:"new_assignee,omitempty"`
	TicketTitle string  `json:"ticket_title"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string   `json:"comment_id"`
	TicketTitle string   `json:"ticket_title"`
	NotifyUsers []string `json:"notify_users"`
}

// EscalatedPayload payload.
type EscalatedPayload struct {
	TicketTitle string `json:"ticket_title"`
	NotifyUser  string `json:"notify_user"`
}
