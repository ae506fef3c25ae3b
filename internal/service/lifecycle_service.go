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

// allowedTransitions is the lifecycle state machine. Closed is terminal;
// escalated tickets come back through in_progress or open before they can
// resolve.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:        {domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusEscalated},
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusEscalated},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved, domain.TicketStatusEscalated, domain.TicketStatusOpen},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusOpen},
	domain.TicketStatusEscalated:  {domain.TicketStatusInProgress, domain.TicketStatusOpen},
	domain.TicketStatusClosed:     {},
}

func transitionAllowed(from, to domain.TicketStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LifecycleService drives ticket status changes and comments, feeding the
// SLA tracker, the audit trail and the event bus as side effects.
type LifecycleService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	tracker    *TrackerService
	auditor    *audit.Auditor
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewLifecycleService builds the service.
func NewLifecycleService(
	tickets repository.TicketRepository,
	comments repository.CommentRepository,
	tracker *TrackerService,
	auditor *audit.Auditor,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		tickets:    tickets,
		comments:   comments,
		tracker:    tracker,
		auditor:    auditor,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// UpdateStatus applies one lifecycle transition on behalf of an actor.
// Checks run in a fixed order: authentication, role gate, assignment
// requirement, transition legality. The row update is optimistic: it only
// applies while the status still matches what the actor saw.
func (s *LifecycleService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus, now time.Time) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": string(newStatus)})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	if !actor.Role.IsStaff() {
		return nil, apperrors.NewUnauthorized(CanChangeStatus(actor.Role, false).Reason)
	}
	if ticket.AssignedTo == nil {
		return nil, apperrors.NewNotAssigned()
	}
	verdict := CanChangeStatus(actor.Role, *ticket.AssignedTo == actor.ID)
	if !verdict.Allowed {
		return nil, apperrors.NewUnauthorized(verdict.Reason)
	}

	oldStatus := ticket.Status
	if !transitionAllowed(oldStatus, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(oldStatus), string(newStatus))
	}

	applied, err := s.tickets.UpdateStatus(ctx, ticket.ID, oldStatus, newStatus)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	if !applied {
		return nil, apperrors.NewConflict("ticket status changed concurrently", map[string]any{"ticket_id": ticket.ID})
	}
	ticket.Status = newStatus
	ticket.UpdatedAt = now

	// Any staff transition by someone other than the creator counts as
	// the first response.
	if actor.ID != ticket.CreatedBy {
		if err := s.tracker.RecordFirstResponse(ctx, ticket.ID, now); err != nil {
			return nil, err
		}
	}
	switch newStatus {
	case domain.TicketStatusResolved:
		if err := s.tracker.RecordResolution(ctx, ticket.ID, now); err != nil {
			return nil, err
		}
	case domain.TicketStatusEscalated:
		if err := s.tracker.RecordEscalation(ctx, ticket.ID, now); err != nil {
			return nil, err
		}
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionStatusChange,
		EntityType:  domain.EntityTicket,
		EntityID:    ticket.ID,
		OldValues:   map[string]any{"status": string(oldStatus)},
		NewValues:   map[string]any{"status": string(newStatus)},
		Description: fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus),
	})

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		Timestamp: now,
		Payload: events.StatusChangedPayload{
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
			TicketTitle: ticket.Title,
			NotifyUser:  ticket.CreatedBy,
		},
	})
	if newStatus == domain.TicketStatusEscalated {
		s.publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketEscalated,
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			Timestamp: now,
			Payload: events.EscalatedPayload{
				TicketTitle: ticket.Title,
				NotifyUser:  *ticket.AssignedTo,
			},
		})
	}

	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(newStatus)),
		zap.String("actor_id", actor.ID))
	return ticket, nil
}

// AddComment records a comment. Staff comments on tickets the actor did
// not create count as the first response.
func (s *LifecycleService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string, now time.Time) (*domain.Comment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	if actor.Role == domain.RoleCustomer && ticket.CreatedBy != actor.ID {
		return nil, apperrors.NewUnauthorized("you can only comment on your own tickets")
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	if actor.Role.IsStaff() && actor.ID != ticket.CreatedBy {
		if err := s.tracker.RecordFirstResponse(ctx, ticket.ID, now); err != nil {
			return nil, err
		}
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionCommentAdd,
		EntityType:  domain.EntityTicket,
		EntityID:    ticket.ID,
		NewValues:   map[string]any{"comment_id": comment.ID},
		Description: "Comment added",
	})

	notify := make([]string, 0, 2)
	if ticket.CreatedBy != actor.ID {
		notify = append(notify, ticket.CreatedBy)
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo != actor.ID && *ticket.AssignedTo != ticket.CreatedBy {
		notify = append(notify, *ticket.AssignedTo)
	}
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventCommentAdded,
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		Timestamp: now,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			TicketTitle: ticket.Title,
			NotifyUsers: notify,
		},
	})
	return comment, nil
}

// History returns the audit trail for one ticket.
func (s *LifecycleService) History(ctx context.Context, ticketID string, limit, offset int) ([]domain.AuditEntry, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	entries, err := s.auditor.ListForEntity(ctx, domain.EntityTicket, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return entries, nil
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
