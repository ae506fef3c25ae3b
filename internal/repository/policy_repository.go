package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// PolicyRepository manages SLA policy rows. The engine core only reads;
// writes come from the admin service.
type PolicyRepository interface {
	List(ctx context.Context) ([]domain.SLAPolicy, error)
	ListActive(ctx context.Context) ([]domain.SLAPolicy, error)
	GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error)
	GetActiveByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error)
	Create(ctx context.Context, policy *domain.SLAPolicy) error
	Update(ctx context.Context, policy *domain.SLAPolicy) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository instantiates repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

const policyColumns = `id, name, description, priority, response_time_minutes, resolution_time_minutes,
        escalation_time_minutes, business_hours_only, is_active, created_by, created_at, updated_at`

func (r *policyRepository) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies ORDER BY created_at`
	return r.queryPolicies(ctx, query)
}

func (r *policyRepository) ListActive(ctx context.Context) ([]domain.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE is_active ORDER BY created_at`
	return r.queryPolicies(ctx, query)
}

func (r *policyRepository) queryPolicies(ctx context.Context, query string, args ...any) ([]domain.SLAPolicy, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *policy)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Priority ordering comes from the domain rank map, not query text.
	domain.SortPoliciesByPriority(result)
	return result, nil
}

func (r *policyRepository) GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE id=$1`
	return scanPolicy(r.pool.QueryRow(ctx, query, id))
}

func (r *policyRepository) GetActiveByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies
        WHERE priority=$1 AND is_active LIMIT 1`
	return scanPolicy(r.pool.QueryRow(ctx, query, priority))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*domain.SLAPolicy, error) {
	var policy domain.SLAPolicy
	if err := row.Scan(
		&policy.ID,
		&policy.Name,
		&policy.Description,
		&policy.Priority,
		&policy.ResponseTimeMinutes,
		&policy.ResolutionTimeMinutes,
		&policy.EscalationTimeMinutes,
		&policy.BusinessHoursOnly,
		&policy.IsActive,
		&policy.CreatedBy,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *policyRepository) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        INSERT INTO sla_policies (name, description, priority, response_time_minutes, resolution_time_minutes,
            escalation_time_minutes, business_hours_only, is_active, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		policy.Name,
		policy.Description,
		policy.Priority,
		policy.ResponseTimeMinutes,
		policy.ResolutionTimeMinutes,
		policy.EscalationTimeMinutes,
		policy.BusinessHoursOnly,
		policy.IsActive,
		policy.CreatedBy,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
}

func (r *policyRepository) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        UPDATE sla_policies SET name=$1, description=$2, priority=$3, response_time_minutes=$4,
            resolution_time_minutes=$5, escalation_time_minutes=$6, business_hours_only=$7,
            is_active=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		policy.Name,
		policy.Description,
		policy.Priority,
		policy.ResponseTimeMinutes,
		policy.ResolutionTimeMinutes,
		policy.EscalationTimeMinutes,
		policy.BusinessHoursOnly,
		policy.IsActive,
		policy.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *policyRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE sla_policies SET is_active=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *policyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sla_policies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
