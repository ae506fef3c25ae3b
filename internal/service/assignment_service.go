package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/audit"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// AssignmentService owns the assigned_to column: assigning, reassigning
// and unassigning tickets, with the agent note requirement.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	comments   repository.CommentRepository
	auditor    *audit.Auditor
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAssignmentService builds the service.
func NewAssignmentService(
	tickets repository.TicketRepository,
	users repository.UserRepository,
	comments repository.CommentRepository,
	auditor *audit.Auditor,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		tickets:    tickets,
		users:      users,
		comments:   comments,
		auditor:    auditor,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Assign sets or clears the ticket's assignee. Agents may only hand off
// tickets assigned to themselves and must leave a note; admins may assign
// freely. The note, when present, becomes a ticket comment but never
// counts as a first response.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.User, ticketID string, assigneeID *string, note string, now time.Time) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	isAssignee := ticket.AssignedTo != nil && *ticket.AssignedTo == actor.ID
	verdict := CanAssign(actor.Role, isAssignee)
	if !verdict.Allowed {
		return nil, apperrors.NewUnauthorized(verdict.Reason)
	}

	note = strings.TrimSpace(note)
	if verdict.NoteRequired && note == "" {
		return nil, apperrors.NewMissingNote()
	}

	var assignee *domain.User
	if assigneeID != nil {
		assignee, err = s.users.GetByID(ctx, *assigneeID)
		if err != nil {
			return nil, apperrors.ToDomainError(err)
		}
		if !assignee.Role.IsStaff() {
			return nil, apperrors.NewValidationError("assignee must be an agent or admin", map[string]any{"user_id": assignee.ID})
		}
	}

	oldAssignee := ticket.AssignedTo
	applied, err := s.tickets.UpdateAssignee(ctx, ticket.ID, oldAssignee, assigneeID)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	if !applied {
		return nil, apperrors.NewConflict("ticket assignment changed concurrently", map[string]any{"ticket_id": ticket.ID})
	}
	ticket.AssignedTo = assigneeID
	ticket.UpdatedAt = now

	// The note bypasses AddComment on purpose: a reassignment note must
	// not stamp first_response_at.
	if note != "" {
		comment := &domain.Comment{TicketID: ticket.ID, AuthorID: actor.ID, Content: note}
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, apperrors.ToDomainError(err)
		}
	}

	action := domain.AuditActionAssign
	if oldAssignee != nil {
		action = domain.AuditActionReassign
	}
	oldName := s.displayName(ctx, oldAssignee)
	newName := "Unassigned"
	if assignee != nil {
		newName = assignee.Name
	}
	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      action,
		EntityType:  domain.EntityTicket,
		EntityID:    ticket.ID,
		OldValues:   map[string]any{"assigned_to": strOrNil(oldAssignee), "assigned_to_name": oldName},
		NewValues:   map[string]any{"assigned_to": strOrNil(assigneeID), "assigned_to_name": newName},
		Description: fmt.Sprintf("Assignee changed from %s to %s", oldName, newName),
	})

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		Timestamp: now,
		Payload: events.AssignedPayload{
			OldAssignee: oldAssignee,
			NewAssignee: assigneeID,
			TicketTitle: ticket.Title,
		},
	})

	s.logger.Info("ticket assignment changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("action", string(action)),
		zap.String("actor_id", actor.ID))
	return ticket, nil
}

func (s *AssignmentService) displayName(ctx context.Context, userID *string) string {
	if userID == nil {
		return "Unassigned"
	}
	user, err := s.users.GetByID(ctx, *userID)
	if err != nil {
		return "Unknown"
	}
	return user.Name
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func strOrNil(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
