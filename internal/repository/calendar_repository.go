package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// CalendarRepository stores the weekly day rules and the holiday set.
// Day rules are a fixed seven-row table keyed by day_of_week.
type CalendarRepository interface {
	ListDayRules(ctx context.Context) ([]domain.DayRule, error)
	UpdateDayRules(ctx context.Context, rules []domain.DayRule) error
	ListHolidays(ctx context.Context) ([]domain.Holiday, error)
	AddHoliday(ctx context.Context, holiday *domain.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
}

type calendarRepository struct {
	pool *pgxpool.Pool
}

// NewCalendarRepository instantiates repository.
func NewCalendarRepository(pool *pgxpool.Pool) CalendarRepository {
	return &calendarRepository{pool: pool}
}

func (r *calendarRepository) ListDayRules(ctx context.Context) ([]domain.DayRule, error) {
	const query = `
        SELECT day_of_week, is_working_day, start_minute, end_minute
        FROM business_hours ORDER BY day_of_week ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DayRule
	for rows.Next() {
		var rule domain.DayRule
		if err := rows.Scan(&rule.DayOfWeek, &rule.IsWorkingDay, &rule.StartMinute, &rule.EndMinute); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

func (r *calendarRepository) UpdateDayRules(ctx context.Context, rules []domain.DayRule) error {
	const query = `
        UPDATE business_hours SET is_working_day=$1, start_minute=$2, end_minute=$3
        WHERE day_of_week=$4`
	for _, rule := range rules {
		if _, err := r.pool.Exec(ctx, query,
			rule.IsWorkingDay, rule.StartMinute, rule.EndMinute, rule.DayOfWeek); err != nil {
			return err
		}
	}
	return nil
}

func (r *calendarRepository) ListHolidays(ctx context.Context) ([]domain.Holiday, error) {
	const query = `
        SELECT id, name, date, is_recurring, created_at
        FROM holidays ORDER BY date ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Holiday
	for rows.Next() {
		var h domain.Holiday
		if err := rows.Scan(&h.ID, &h.Name, &h.Date, &h.IsRecurring, &h.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func (r *calendarRepository) AddHoliday(ctx context.Context, holiday *domain.Holiday) error {
	const query = `
        INSERT INTO holidays (name, date, is_recurring)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		holiday.Name,
		holiday.Date,
		holiday.IsRecurring,
	).Scan(&holiday.ID, &holiday.CreatedAt)
}

func (r *calendarRepository) DeleteHoliday(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM holidays WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
