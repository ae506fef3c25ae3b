package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TicketRepository reads tickets and updates the two columns the
// lifecycle engine owns. Both updates are optimistic: they apply only
// when the column still holds the expected old value, so racing
// mutations cannot silently overwrite each other.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (bool, error)
	UpdateAssignee(ctx context.Context, id string, from, to *string) (bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, status, priority, assigned_to, created_by, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Status,
		&ticket.Priority,
		&ticket.AssignedTo,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, id string, from, to *string) (bool, error) {
	const query = `
        UPDATE tickets SET assigned_to=$1, updated_at=NOW()
        WHERE id=$2 AND assigned_to IS NOT DISTINCT FROM $3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// ErrNoRows re-exports pgx's sentinel so services do not import pgx.
var ErrNoRows = pgx.ErrNoRows
