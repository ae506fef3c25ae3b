package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignRequest payload. A null assigned_to unassigns the ticket.
type AssignRequest struct {
	AssignedTo *string `json:"assigned_to"`
	Note       string  `json:"note"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Content string `json:"content"`
}

// TicketResponse mirrors the lifecycle-owned ticket columns.
type TicketResponse struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	AssignedTo *string               `json:"assigned_to"`
	CreatedBy  string                `json:"created_by"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:         ticket.ID,
		Title:      ticket.Title,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		AssignedTo: ticket.AssignedTo,
		CreatedBy:  ticket.CreatedBy,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

// CommentResponse response.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntryResponse is one history row.
type AuditEntryResponse struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	ActorName   *string        `json:"actor_name,omitempty"`
	OldValues   map[string]any `json:"old_values,omitempty"`
	NewValues   map[string]any `json:"new_values,omitempty"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewAuditEntryResponse maps an audit entry.
func NewAuditEntryResponse(entry *domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:          entry.ID,
		Action:      string(entry.Action),
		ActorName:   entry.ActorName,
		OldValues:   entry.OldValues,
		NewValues:   entry.NewValues,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
}

// NotificationResponse is one feed row.
type NotificationResponse struct {
	ID        string     `json:"id"`
	TicketID  string     `json:"ticket_id"`
	Message   string     `json:"message"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewNotificationResponse maps a notification.
func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		TicketID:  n.TicketID,
		Message:   n.Message,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
