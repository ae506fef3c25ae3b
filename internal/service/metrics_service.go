package service

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// scanPageSize bounds each page of the open-ticket scan.
const scanPageSize = 500

// TicketSLAView is one entry in the breach/at-risk listings.
type TicketSLAView struct {
	TicketID     string                `json:"ticket_id"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	AssignedTo   *string               `json:"assigned_to,omitempty"`
	AssigneeName *string               `json:"assignee_name,omitempty"`
	SLA          sla.Status            `json:"sla"`
	NextDueAt    time.Time             `json:"next_due_at"`
}

// MetricsService aggregates compliance over ticket populations and lists
// the tickets that need attention right now.
type MetricsService struct {
	tracking repository.TrackingRepository
}

// NewMetricsService builds the service.
func NewMetricsService(tracking repository.TrackingRepository) *MetricsService {
	return &MetricsService{tracking: tracking}
}

// Metrics aggregates compliance for tickets created in [from, to). Nil
// bounds leave that side of the window open. Rates are 0, never NaN, when
// no axis outcome has been recorded.
func (s *MetricsService) Metrics(ctx context.Context, from, to *time.Time, now time.Time) (*domain.SLAMetrics, error) {
	metrics, err := s.tracking.Aggregate(ctx, from, to, now)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	metrics.ResponseComplianceRate = complianceRate(metrics.ResponseMet, metrics.ResponseBreached)
	metrics.ResolutionComplianceRate = complianceRate(metrics.ResolutionMet, metrics.ResolutionBreached)
	return metrics, nil
}

// ListBreached returns open tickets with at least one breached axis,
// earliest overdue deadline first.
func (s *MetricsService) ListBreached(ctx context.Context, now time.Time) ([]TicketSLAView, error) {
	return s.scanOpen(ctx, now, sla.AxisBreached)
}

// ListAtRisk returns open tickets with at least one at-risk axis,
// earliest deadline first.
func (s *MetricsService) ListAtRisk(ctx context.Context, now time.Time) ([]TicketSLAView, error) {
	return s.scanOpen(ctx, now, sla.AxisAtRisk)
}

// scanOpen pages through tracked tickets with an open axis, classifies
// each against now and keeps those matching the wanted axis state.
func (s *MetricsService) scanOpen(ctx context.Context, now time.Time, wanted sla.AxisStatus) ([]TicketSLAView, error) {
	var views []TicketSLAView
	for offset := 0; ; offset += scanPageSize {
		page, err := s.tracking.ListOpen(ctx, scanPageSize, offset)
		if err != nil {
			return nil, apperrors.ToDomainError(err)
		}
		for i := range page {
			row := &page[i]
			status := sla.Classify(&row.Tracking, now)

			due, matches := matchAxis(row, status, wanted)
			if !matches {
				continue
			}
			views = append(views, TicketSLAView{
				TicketID:     row.Tracking.TicketID,
				Title:        row.Title,
				Status:       row.Status,
				Priority:     row.Priority,
				AssignedTo:   row.AssignedTo,
				AssigneeName: row.AssigneeName,
				SLA:          status,
				NextDueAt:    due,
			})
		}
		if len(page) < scanPageSize {
			break
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].NextDueAt.Before(views[j].NextDueAt) })
	return views, nil
}

// matchAxis reports whether any still-open axis of the row is in the
// wanted state and returns the earliest matching deadline.
func matchAxis(row *domain.TrackedTicket, status sla.Status, wanted sla.AxisStatus) (time.Time, bool) {
	var due time.Time
	matched := false
	if row.Tracking.FirstResponseAt == nil && status.Response.Status == wanted {
		due = row.Tracking.ResponseDueAt
		matched = true
	}
	if row.Tracking.ResolvedAt == nil && status.Resolution.Status == wanted {
		if !matched || row.Tracking.ResolutionDueAt.Before(due) {
			due = row.Tracking.ResolutionDueAt
		}
		matched = true
	}
	return due, matched
}

// complianceRate is met/(met+breached) as a percentage, 0 when nothing
// has an outcome yet.
func complianceRate(met, breached int) float64 {
	total := met + breached
	if total == 0 {
		return 0
	}
	return float64(met) / float64(total) * 100
}
