package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/cache"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// TrackerService owns the SLA tracking rows: it opens tracking when a
// ticket enters the system and records first-response, resolution and
// escalation exactly once each.
type TrackerService struct {
	tracking repository.TrackingRepository
	config   *cache.SLACache
	location *time.Location
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTrackerService builds the tracker.
func NewTrackerService(tracking repository.TrackingRepository, config *cache.SLACache, location *time.Location, metrics *observability.Metrics, logger *zap.Logger) *TrackerService {
	if location == nil {
		location = time.UTC
	}
	return &TrackerService{tracking: tracking, config: config, location: location, metrics: metrics, logger: logger}
}

// StartTracking computes deadlines for a new ticket and persists the
// tracking row. Tickets whose priority has no active policy are left
// untracked without error.
func (s *TrackerService) StartTracking(ctx context.Context, ticket *domain.Ticket) (*domain.SLATracking, error) {
	policy, err := s.config.ActivePolicyByPriority(ctx, ticket.Priority)
	if err != nil {
		// Missing policy is non-fatal: the ticket just goes untracked.
		if apperrors.IsCode(err, "POLICY_NOT_FOUND") {
			s.logger.Debug("no active sla policy for priority, ticket untracked",
				zap.String("ticket_id", ticket.ID),
				zap.String("priority", string(ticket.Priority)))
			return nil, nil
		}
		return nil, apperrors.ToDomainError(err)
	}

	calendar, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}

	deadlines, err := sla.ComputeDeadlines(ticket.CreatedAt, policy, calendar)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	tracking := &domain.SLATracking{
		TicketID:        ticket.ID,
		PolicyID:        policy.ID,
		CreatedAt:       ticket.CreatedAt,
		ResponseDueAt:   deadlines.ResponseDueAt,
		ResolutionDueAt: deadlines.ResolutionDueAt,
		EscalationDueAt: deadlines.EscalationDueAt,
	}
	if err := s.tracking.Create(ctx, tracking); err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	s.logger.Info("sla tracking started",
		zap.String("ticket_id", ticket.ID),
		zap.String("policy_id", policy.ID),
		zap.Time("response_due_at", tracking.ResponseDueAt),
		zap.Time("resolution_due_at", tracking.ResolutionDueAt))
	return tracking, nil
}

// RecordFirstResponse stamps the first-response timestamp if it has not
// been stamped yet. Later calls are no-ops, as are calls for untracked
// tickets.
func (s *TrackerService) RecordFirstResponse(ctx context.Context, ticketID string, at time.Time) error {
	tracking, err := s.tracking.GetByTicketID(ctx, ticketID)
	if err != nil {
		if err == repository.ErrNoRows {
			return nil
		}
		return apperrors.ToDomainError(err)
	}
	if tracking.FirstResponseAt != nil {
		return nil
	}

	met := axisMet(at, tracking.ResponseDueAt)
	minutes := elapsedMinutes(tracking.CreatedAt, at)
	applied, err := s.tracking.SetFirstResponse(ctx, ticketID, at, met, minutes)
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	if applied {
		s.metrics.RecordSLAOutcome("response", met)
		s.logger.Info("first response recorded",
			zap.String("ticket_id", ticketID),
			zap.Bool("met", met),
			zap.Int("minutes", minutes))
	}
	return nil
}

// RecordResolution stamps the resolution timestamp if it has not been
// stamped yet.
func (s *TrackerService) RecordResolution(ctx context.Context, ticketID string, at time.Time) error {
	tracking, err := s.tracking.GetByTicketID(ctx, ticketID)
	if err != nil {
		if err == repository.ErrNoRows {
			return nil
		}
		return apperrors.ToDomainError(err)
	}
	if tracking.ResolvedAt != nil {
		return nil
	}

	met := axisMet(at, tracking.ResolutionDueAt)
	minutes := elapsedMinutes(tracking.CreatedAt, at)
	applied, err := s.tracking.SetResolution(ctx, ticketID, at, met, minutes)
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	if applied {
		s.metrics.RecordSLAOutcome("resolution", met)
		s.logger.Info("resolution recorded",
			zap.String("ticket_id", ticketID),
			zap.Bool("met", met),
			zap.Int("minutes", minutes))
	}
	return nil
}

// RecordEscalation stamps the escalation timestamp once.
func (s *TrackerService) RecordEscalation(ctx context.Context, ticketID string, at time.Time) error {
	tracking, err := s.tracking.GetByTicketID(ctx, ticketID)
	if err != nil {
		if err == repository.ErrNoRows {
			return nil
		}
		return apperrors.ToDomainError(err)
	}
	if tracking.EscalatedAt != nil {
		return nil
	}

	applied, err := s.tracking.SetEscalation(ctx, ticketID, at)
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	if applied {
		s.logger.Info("escalation recorded", zap.String("ticket_id", ticketID))
	}
	return nil
}

// Status returns the live compliance classification for one ticket, or
// nil tracking when the ticket is untracked.
func (s *TrackerService) Status(ctx context.Context, ticketID string, now time.Time) (*domain.SLATracking, *sla.Status, error) {
	tracking, err := s.tracking.GetByTicketID(ctx, ticketID)
	if err != nil {
		if err == repository.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, apperrors.ToDomainError(err)
	}
	status := sla.Classify(tracking, now)
	return tracking, &status, nil
}

func (s *TrackerService) loadCalendar(ctx context.Context) (*sla.Calendar, error) {
	rules, err := s.config.DayRules(ctx)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	holidays, err := s.config.Holidays(ctx)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return sla.NewCalendar(rules, holidays, s.location), nil
}

// axisMet compares the actual timestamp with the deadline. Hitting the
// deadline exactly counts as met.
func axisMet(at, due time.Time) bool {
	return !at.After(due)
}

func elapsedMinutes(from, to time.Time) int {
	return int(to.Sub(from).Minutes())
}
