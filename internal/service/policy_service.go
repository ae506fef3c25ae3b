package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/audit"
	"github.com/spec-kit/sla-engine/internal/cache"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// PolicyInput carries admin-supplied policy fields.
type PolicyInput struct {
	Name                  string
	Description           string
	Priority              domain.TicketPriority
	ResponseTimeMinutes   int
	ResolutionTimeMinutes int
	EscalationTimeMinutes *int
	BusinessHoursOnly     bool
	IsActive              bool
}

// PolicyService is the admin surface for SLA policies and the business
// calendar. Every write audits and invalidates the config cache.
type PolicyService struct {
	policies repository.PolicyRepository
	calendar repository.CalendarRepository
	tracking repository.TrackingRepository
	cache    *cache.SLACache
	auditor  *audit.Auditor
	logger   *zap.Logger
}

// NewPolicyService builds the service.
func NewPolicyService(
	policies repository.PolicyRepository,
	calendar repository.CalendarRepository,
	tracking repository.TrackingRepository,
	cache *cache.SLACache,
	auditor *audit.Auditor,
	logger *zap.Logger,
) *PolicyService {
	return &PolicyService{
		policies: policies,
		calendar: calendar,
		tracking: tracking,
		cache:    cache,
		auditor:  auditor,
		logger:   logger,
	}
}

// ListPolicies returns all policies ordered by priority.
func (s *PolicyService) ListPolicies(ctx context.Context, actor *domain.User) ([]domain.SLAPolicy, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	policies, err := s.policies.List(ctx)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return policies, nil
}

// CreatePolicy inserts a new policy, enforcing at most one active policy
// per priority.
func (s *PolicyService) CreatePolicy(ctx context.Context, actor *domain.User, input PolicyInput) (*domain.SLAPolicy, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validatePolicyInput(input); err != nil {
		return nil, err
	}
	if input.IsActive {
		if err := s.ensureNoActiveForPriority(ctx, input.Priority, ""); err != nil {
			return nil, err
		}
	}

	policy := &domain.SLAPolicy{
		Name:                  strings.TrimSpace(input.Name),
		Description:           strings.TrimSpace(input.Description),
		Priority:              input.Priority,
		ResponseTimeMinutes:   input.ResponseTimeMinutes,
		ResolutionTimeMinutes: input.ResolutionTimeMinutes,
		EscalationTimeMinutes: input.EscalationTimeMinutes,
		BusinessHoursOnly:     input.BusinessHoursOnly,
		IsActive:              input.IsActive,
		CreatedBy:             &actor.ID,
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionCreate,
		EntityType:  domain.EntitySLAPolicy,
		EntityID:    policy.ID,
		NewValues:   policyValues(policy),
		Description: fmt.Sprintf("SLA policy %q created for priority %s", policy.Name, policy.Priority),
	})
	s.cache.Invalidate(ctx)
	return policy, nil
}

// UpdatePolicy replaces the mutable fields of an existing policy.
func (s *PolicyService) UpdatePolicy(ctx context.Context, actor *domain.User, id string, input PolicyInput) (*domain.SLAPolicy, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validatePolicyInput(input); err != nil {
		return nil, err
	}

	existing, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	if input.IsActive {
		if err := s.ensureNoActiveForPriority(ctx, input.Priority, id); err != nil {
			return nil, err
		}
	}

	oldValues := policyValues(existing)
	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.Priority = input.Priority
	existing.ResponseTimeMinutes = input.ResponseTimeMinutes
	existing.ResolutionTimeMinutes = input.ResolutionTimeMinutes
	existing.EscalationTimeMinutes = input.EscalationTimeMinutes
	existing.BusinessHoursOnly = input.BusinessHoursOnly
	existing.IsActive = input.IsActive

	if err := s.policies.Update(ctx, existing); err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionUpdate,
		EntityType:  domain.EntitySLAPolicy,
		EntityID:    existing.ID,
		OldValues:   oldValues,
		NewValues:   policyValues(existing),
		Description: fmt.Sprintf("SLA policy %q updated", existing.Name),
	})
	s.cache.Invalidate(ctx)
	return existing, nil
}

// SetPolicyActive toggles the active flag, enforcing the one-active-per-
// priority invariant on activation.
func (s *PolicyService) SetPolicyActive(ctx context.Context, actor *domain.User, id string, active bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	if active && !policy.IsActive {
		if err := s.ensureNoActiveForPriority(ctx, policy.Priority, id); err != nil {
			return err
		}
	}
	if err := s.policies.SetActive(ctx, id, active); err != nil {
		return apperrors.ToDomainError(err)
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionUpdate,
		EntityType:  domain.EntitySLAPolicy,
		EntityID:    id,
		OldValues:   map[string]any{"is_active": policy.IsActive},
		NewValues:   map[string]any{"is_active": active},
		Description: fmt.Sprintf("SLA policy %q active flag set to %t", policy.Name, active),
	})
	s.cache.Invalidate(ctx)
	return nil
}

// DeletePolicy removes a policy that no tracking row references.
// Referenced policies must be deactivated instead.
func (s *PolicyService) DeletePolicy(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	refs, err := s.tracking.CountByPolicy(ctx, id)
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	if refs > 0 {
		return apperrors.NewConflict("policy is referenced by ticket tracking rows; deactivate it instead",
			map[string]any{"policy_id": id, "references": refs})
	}
	if err := s.policies.Delete(ctx, id); err != nil {
		return apperrors.ToDomainError(err)
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionDelete,
		EntityType:  domain.EntitySLAPolicy,
		EntityID:    id,
		OldValues:   policyValues(policy),
		Description: fmt.Sprintf("SLA policy %q deleted", policy.Name),
	})
	s.cache.Invalidate(ctx)
	return nil
}

// BusinessHours returns the weekly calendar rules.
func (s *PolicyService) BusinessHours(ctx context.Context, actor *domain.User) ([]domain.DayRule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rules, err := s.calendar.ListDayRules(ctx)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return rules, nil
}

// UpdateBusinessHours replaces the weekly calendar rules.
func (s *PolicyService) UpdateBusinessHours(ctx context.Context, actor *domain.User, rules []domain.DayRule) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	seen := make(map[int]bool, len(rules))
	for _, rule := range rules {
		if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
			return apperrors.NewValidationError("day_of_week must be between 0 and 6", map[string]any{"day_of_week": rule.DayOfWeek})
		}
		if seen[rule.DayOfWeek] {
			return apperrors.NewValidationError("duplicate day_of_week", map[string]any{"day_of_week": rule.DayOfWeek})
		}
		seen[rule.DayOfWeek] = true
		if rule.IsWorkingDay {
			if rule.StartMinute < 0 || rule.EndMinute > 24*60 || rule.EndMinute <= rule.StartMinute {
				return apperrors.NewValidationError("working day window must satisfy 0 <= start < end <= 1440",
					map[string]any{"day_of_week": rule.DayOfWeek})
			}
		}
	}

	if err := s.calendar.UpdateDayRules(ctx, rules); err != nil {
		return apperrors.ToDomainError(err)
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionUpdate,
		EntityType:  domain.EntityCalendar,
		EntityID:    "weekly",
		NewValues:   map[string]any{"rules": rules},
		Description: "Business hours updated",
	})
	s.cache.Invalidate(ctx)
	return nil
}

// Holidays lists configured holidays.
func (s *PolicyService) Holidays(ctx context.Context, actor *domain.User) ([]domain.Holiday, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	holidays, err := s.calendar.ListHolidays(ctx)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return holidays, nil
}

// AddHoliday registers a holiday.
func (s *PolicyService) AddHoliday(ctx context.Context, actor *domain.User, holiday *domain.Holiday) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	holiday.Name = strings.TrimSpace(holiday.Name)
	if holiday.Name == "" {
		return apperrors.NewValidationError("holiday name is required", nil)
	}
	if holiday.Date.IsZero() {
		return apperrors.NewValidationError("holiday date is required", nil)
	}
	if err := s.calendar.AddHoliday(ctx, holiday); err != nil {
		return apperrors.ToDomainError(err)
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionCreate,
		EntityType:  domain.EntityHoliday,
		EntityID:    holiday.ID,
		NewValues:   map[string]any{"name": holiday.Name, "date": holiday.Date, "is_recurring": holiday.IsRecurring},
		Description: fmt.Sprintf("Holiday %q added", holiday.Name),
	})
	s.cache.Invalidate(ctx)
	return nil
}

// DeleteHoliday removes a holiday.
func (s *PolicyService) DeleteHoliday(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.calendar.DeleteHoliday(ctx, id); err != nil {
		return apperrors.ToDomainError(err)
	}

	s.auditor.Record(ctx, actor, domain.AuditEntry{
		Action:      domain.AuditActionDelete,
		EntityType:  domain.EntityHoliday,
		EntityID:    id,
		Description: "Holiday deleted",
	})
	s.cache.Invalidate(ctx)
	return nil
}

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewUnauthorized("admin role required")
	}
	return nil
}

func validatePolicyInput(input PolicyInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("policy name is required", nil)
	}
	if !input.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(input.Priority)})
	}
	if input.ResponseTimeMinutes <= 0 || input.ResolutionTimeMinutes <= 0 {
		return apperrors.NewValidationError("response and resolution minutes must be positive", nil)
	}
	if input.EscalationTimeMinutes != nil && *input.EscalationTimeMinutes <= 0 {
		return apperrors.NewValidationError("escalation minutes must be positive when set", nil)
	}
	return nil
}

// policyValues flattens a policy for the audit trail.
func policyValues(policy *domain.SLAPolicy) map[string]any {
	values := map[string]any{
		"name":                    policy.Name,
		"priority":                string(policy.Priority),
		"response_time_minutes":   policy.ResponseTimeMinutes,
		"resolution_time_minutes": policy.ResolutionTimeMinutes,
		"business_hours_only":     policy.BusinessHoursOnly,
		"is_active":               policy.IsActive,
	}
	if policy.EscalationTimeMinutes != nil {
		values["escalation_time_minutes"] = *policy.EscalationTimeMinutes
	}
	return values
}

// ensureNoActiveForPriority rejects activation when another policy is
// already active for the priority.
func (s *PolicyService) ensureNoActiveForPriority(ctx context.Context, priority domain.TicketPriority, excludeID string) error {
	active, err := s.policies.GetActiveByPriority(ctx, priority)
	if err != nil {
		if err == repository.ErrNoRows {
			return nil
		}
		return apperrors.ToDomainError(err)
	}
	if active != nil && active.ID != excludeID {
		return apperrors.NewConflict("an active policy already exists for this priority",
			map[string]any{"priority": string(priority), "policy_id": active.ID})
	}
	return nil
}
