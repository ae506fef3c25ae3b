package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TrackingRepository persists per-ticket SLA tracking rows. The three Set
// methods are compare-and-set: they write only while the target timestamp
// is still null and report whether the write applied, which makes
// redundant calls from racing transitions harmless.
type TrackingRepository interface {
	Create(ctx context.Context, tracking *domain.SLATracking) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.SLATracking, error)
	SetFirstResponse(ctx context.Context, ticketID string, at time.Time, met bool, minutes int) (bool, error)
	SetResolution(ctx context.Context, ticketID string, at time.Time, met bool, minutes int) (bool, error)
	SetEscalation(ctx context.Context, ticketID string, at time.Time) (bool, error)
	ListOpen(ctx context.Context, limit, offset int) ([]domain.TrackedTicket, error)
	Aggregate(ctx context.Context, from, to *time.Time, now time.Time) (*domain.SLAMetrics, error)
	CountByPolicy(ctx context.Context, policyID string) (int, error)
}

type trackingRepository struct {
	pool *pgxpool.Pool
}

// NewTrackingRepository instantiates repository.
func NewTrackingRepository(pool *pgxpool.Pool) TrackingRepository {
	return &trackingRepository{pool: pool}
}

const trackingColumns = `id, ticket_id, sla_policy_id, created_at, response_due_at, first_response_at,
        response_sla_met, response_time_minutes, resolution_due_at, resolved_at, resolution_sla_met,
        resolution_time_minutes, escalation_due_at, escalated_at`

func (r *trackingRepository) Create(ctx context.Context, tracking *domain.SLATracking) error {
	const query = `
        INSERT INTO ticket_sla_tracking (ticket_id, sla_policy_id, created_at, response_due_at,
            resolution_due_at, escalation_due_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		tracking.TicketID,
		tracking.PolicyID,
		tracking.CreatedAt,
		tracking.ResponseDueAt,
		tracking.ResolutionDueAt,
		tracking.EscalationDueAt,
	).Scan(&tracking.ID)
}

func (r *trackingRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.SLATracking, error) {
	query := `SELECT ` + trackingColumns + ` FROM ticket_sla_tracking WHERE ticket_id=$1`
	var t domain.SLATracking
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&t.ID,
		&t.TicketID,
		&t.PolicyID,
		&t.CreatedAt,
		&t.ResponseDueAt,
		&t.FirstResponseAt,
		&t.ResponseSLAMet,
		&t.ResponseTimeMinutes,
		&t.ResolutionDueAt,
		&t.ResolvedAt,
		&t.ResolutionSLAMet,
		&t.ResolutionTimeMinutes,
		&t.EscalationDueAt,
		&t.EscalatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *trackingRepository) SetFirstResponse(ctx context.Context, ticketID string, at time.Time, met bool, minutes int) (bool, error) {
	const query = `
        UPDATE ticket_sla_tracking
        SET first_response_at=$1, response_sla_met=$2, response_time_minutes=$3
        WHERE ticket_id=$4 AND first_response_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, at, met, minutes, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *trackingRepository) SetResolution(ctx context.Context, ticketID string, at time.Time, met bool, minutes int) (bool, error) {
	const query = `
        UPDATE ticket_sla_tracking
        SET resolved_at=$1, resolution_sla_met=$2, resolution_time_minutes=$3
        WHERE ticket_id=$4 AND resolved_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, at, met, minutes, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *trackingRepository) SetEscalation(ctx context.Context, ticketID string, at time.Time) (bool, error) {
	const query = `
        UPDATE ticket_sla_tracking SET escalated_at=$1
        WHERE ticket_id=$2 AND escalated_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, at, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// ListOpen returns tracking rows with at least one axis still running,
// joined with the ticket columns the bulk listings display. Paginated so
// large scans stream instead of loading every row.
func (r *trackingRepository) ListOpen(ctx context.Context, limit, offset int) ([]domain.TrackedTicket, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
        SELECT st.id, st.ticket_id, st.sla_policy_id, st.created_at, st.response_due_at,
               st.first_response_at, st.response_sla_met, st.response_time_minutes,
               st.resolution_due_at, st.resolved_at, st.resolution_sla_met, st.resolution_time_minutes,
               st.escalation_due_at, st.escalated_at,
               t.title, t.status, t.priority, t.assigned_to, u.name
        FROM ticket_sla_tracking st
        JOIN tickets t ON t.id = st.ticket_id
        LEFT JOIN users u ON u.id = t.assigned_to
        WHERE st.first_response_at IS NULL OR st.resolved_at IS NULL
        ORDER BY st.created_at ASC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TrackedTicket
	for rows.Next() {
		var row domain.TrackedTicket
		tr := &row.Tracking
		if err := rows.Scan(
			&tr.ID,
			&tr.TicketID,
			&tr.PolicyID,
			&tr.CreatedAt,
			&tr.ResponseDueAt,
			&tr.FirstResponseAt,
			&tr.ResponseSLAMet,
			&tr.ResponseTimeMinutes,
			&tr.ResolutionDueAt,
			&tr.ResolvedAt,
			&tr.ResolutionSLAMet,
			&tr.ResolutionTimeMinutes,
			&tr.EscalationDueAt,
			&tr.EscalatedAt,
			&row.Title,
			&row.Status,
			&row.Priority,
			&row.AssignedTo,
			&row.AssigneeName,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Aggregate rolls tracking rows up into compliance counts for tickets
// created in the half-open window [from, to). now is caller-supplied so
// active-breach counts stay deterministic under test.
func (r *trackingRepository) Aggregate(ctx context.Context, from, to *time.Time, now time.Time) (*domain.SLAMetrics, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE st.response_sla_met IS TRUE),
               COUNT(*) FILTER (WHERE st.response_sla_met IS FALSE),
               COUNT(*) FILTER (WHERE st.resolution_sla_met IS TRUE),
               COUNT(*) FILTER (WHERE st.resolution_sla_met IS FALSE),
               COALESCE(AVG(st.response_time_minutes), 0),
               COALESCE(AVG(st.resolution_time_minutes), 0),
               COUNT(*) FILTER (WHERE st.first_response_at IS NULL AND $1 > st.response_due_at),
               COUNT(*) FILTER (WHERE st.resolved_at IS NULL AND $1 > st.resolution_due_at)
        FROM ticket_sla_tracking st
        JOIN tickets t ON t.id = st.ticket_id
        WHERE ($2::timestamptz IS NULL OR t.created_at >= $2)
          AND ($3::timestamptz IS NULL OR t.created_at < $3)`
	var m domain.SLAMetrics
	if err := r.pool.QueryRow(ctx, query, now, from, to).Scan(
		&m.TotalTickets,
		&m.ResponseMet,
		&m.ResponseBreached,
		&m.ResolutionMet,
		&m.ResolutionBreached,
		&m.AvgResponseMinutes,
		&m.AvgResolutionMinutes,
		&m.ActiveResponseBreaches,
		&m.ActiveResolutionBreaches,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *trackingRepository) CountByPolicy(ctx context.Context, policyID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ticket_sla_tracking WHERE sla_policy_id=$1`, policyID).Scan(&count)
	return count, err
}
