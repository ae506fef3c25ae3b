package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// NotificationService turns domain events into persisted notifications.
// Delivery is fire-and-forget: failures are logged and never ripple back
// into the mutation that emitted the event.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifications repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher:    dispatcher,
		notifications: notifications,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleEscalated)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", payload))
	message := fmt.Sprintf("Ticket status updated to %s: %s", payload.NewStatus, payload.TicketTitle)
	n.notify(ctx, payload.NotifyUser, event.TicketID, message)
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AssignedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", payload))
	if payload.NewAssignee == nil {
		return nil
	}
	message := fmt.Sprintf("You have been assigned to ticket: %s", payload.TicketTitle)
	n.notify(ctx, *payload.NewAssignee, event.TicketID, message)
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("CommentAdded", zap.String("ticket_id", event.TicketID), zap.Any("payload", payload))
	message := fmt.Sprintf("New comment on ticket: %s", payload.TicketTitle)
	for _, userID := range payload.NotifyUsers {
		n.notify(ctx, userID, event.TicketID, message)
	}
	return nil
}

func (n *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EscalatedPayload)
	if !ok {
		return nil
	}
	n.logger.Warn("TicketEscalated", zap.String("ticket_id", event.TicketID), zap.String("notify_user", payload.NotifyUser))
	message := fmt.Sprintf("Ticket escalated: %s", payload.TicketTitle)
	n.notify(ctx, payload.NotifyUser, event.TicketID, message)
	return nil
}

func (n *NotificationService) notify(ctx context.Context, userID, ticketID, message string) {
	if userID == "" || n.notifications == nil {
		return
	}
	notification := &domain.Notification{
		UserID:   userID,
		TicketID: ticketID,
		Message:  message,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Warn("notification not delivered",
			zap.String("user_id", userID),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}

// ListForUser returns a user's notifications, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	items, err := n.notifications.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return items, nil
}
