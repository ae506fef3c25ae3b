package domain

import "time"

// AuditAction identifies what happened in an audit entry.
type AuditAction string

const (
	AuditActionCreate       AuditAction = "CREATE"
	AuditActionUpdate       AuditAction = "UPDATE"
	AuditActionDelete       AuditAction = "DELETE"
	AuditActionAssign       AuditAction = "ASSIGN"
	AuditActionReassign     AuditAction = "REASSIGN"
	AuditActionStatusChange AuditAction = "STATUS_CHANGE"
	AuditActionCommentAdd   AuditAction = "COMMENT_ADD"
)

// EntityType identifies the audited entity.
type EntityType string

const (
	EntityTicket    EntityType = "ticket"
	EntitySLAPolicy EntityType = "sla_policy"
	EntityCalendar  EntityType = "business_calendar"
	EntityHoliday   EntityType = "holiday"
	EntityComment   EntityType = "comment"
)

// AuditEntry is append-only; entries are never mutated or deleted.
type AuditEntry struct {
	ID          string
	Action      AuditAction
	EntityType  EntityType
	EntityID    string
	ActorID     *string
	ActorEmail  *string
	ActorName   *string
	OldValues   map[string]any
	NewValues   map[string]any
	Description string
	CreatedAt   time.Time
}
