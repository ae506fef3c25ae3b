package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/audit"
	"github.com/spec-kit/sla-engine/internal/cache"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// In-memory repository fakes shared across the service tests. They mirror
// the SQL semantics the real repositories rely on, in particular the
// compare-and-set behavior of status, assignee and tracking writes.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
	for _, ticket := range tickets {
		repo.tickets[ticket.ID] = ticket
	}
	return repo
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.Status != from {
		return false, nil
	}
	ticket.Status = to
	ticket.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeTicketRepo) UpdateAssignee(ctx context.Context, id string, from, to *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || !equalPtr(ticket.AssignedTo, from) {
		return false, nil
	}
	ticket.AssignedTo = to
	ticket.UpdatedAt = time.Now()
	return true, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return user, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []domain.Comment
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = fmt.Sprintf("comment-%d", len(r.comments)+1)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			out = append(out, comment)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	fail    bool
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("audit store down")
	}
	entry.ID = fmt.Sprintf("audit-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string, limit, offset int) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = fmt.Sprintf("notification-%d", len(r.notifications)+1)
	notification.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			out = append(out, notification)
		}
	}
	return out, nil
}

type fakeTrackingRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.SLATracking
	// open rows are joined with these ticket columns by ListOpen.
	tickets map[string]*domain.Ticket
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{
		rows:    make(map[string]*domain.SLATracking),
		tickets: make(map[string]*domain.Ticket),
	}
}

func (r *fakeTrackingRepo) Create(ctx context.Context, tracking *domain.SLATracking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracking.ID = fmt.Sprintf("tracking-%d", len(r.rows)+1)
	copied := *tracking
	r.rows[tracking.TicketID] = &copied
	return nil
}

func (r *fakeTrackingRepo) GetByTicketID(ctx context.Context, ticketID string) (*domain.SLATracking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[ticketID]
	if !ok {
		return nil, repository.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (r *fakeTrackingRepo) SetFirstResponse(ctx context.Context, ticketID string, at time.Time, met bool, minutes int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[ticketID]
	if !ok || row.FirstResponseAt != nil {
		return false, nil
	}
	row.FirstResponseAt = &at
	row.ResponseSLAMet = &met
	row.ResponseTimeMinutes = &minutes
	return true, nil
}

func (r *fakeTrackingRepo) SetResolution(ctx context.Context, ticketID string, at time.Time, met bool, minutes int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[ticketID]
	if !ok || row.ResolvedAt != nil {
		return false, nil
	}
	row.ResolvedAt = &at
	row.ResolutionSLAMet = &met
	row.ResolutionTimeMinutes = &minutes
	return true, nil
}

func (r *fakeTrackingRepo) SetEscalation(ctx context.Context, ticketID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[ticketID]
	if !ok || row.EscalatedAt != nil {
		return false, nil
	}
	row.EscalatedAt = &at
	return true, nil
}

func (r *fakeTrackingRepo) ListOpen(ctx context.Context, limit, offset int) ([]domain.TrackedTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.TrackedTicket
	for ticketID, row := range r.rows {
		if row.FirstResponseAt != nil && row.ResolvedAt != nil {
			continue
		}
		tracked := domain.TrackedTicket{Tracking: *row}
		if ticket, ok := r.tickets[ticketID]; ok {
			tracked.Title = ticket.Title
			tracked.Status = ticket.Status
			tracked.Priority = ticket.Priority
			tracked.AssignedTo = ticket.AssignedTo
		}
		all = append(all, tracked)
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeTrackingRepo) Aggregate(ctx context.Context, from, to *time.Time, now time.Time) (*domain.SLAMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	metrics := &domain.SLAMetrics{}
	var responseSum, resolutionSum, responseCount, resolutionCount int
	for _, row := range r.rows {
		if from != nil && row.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !row.CreatedAt.Before(*to) {
			continue
		}
		metrics.TotalTickets++
		if row.ResponseSLAMet != nil {
			if *row.ResponseSLAMet {
				metrics.ResponseMet++
			} else {
				metrics.ResponseBreached++
			}
		}
		if row.ResolutionSLAMet != nil {
			if *row.ResolutionSLAMet {
				metrics.ResolutionMet++
			} else {
				metrics.ResolutionBreached++
			}
		}
		if row.ResponseTimeMinutes != nil {
			responseSum += *row.ResponseTimeMinutes
			responseCount++
		}
		if row.ResolutionTimeMinutes != nil {
			resolutionSum += *row.ResolutionTimeMinutes
			resolutionCount++
		}
		if row.FirstResponseAt == nil && row.ResponseDueAt.Before(now) {
			metrics.ActiveResponseBreaches++
		}
		if row.ResolvedAt == nil && row.ResolutionDueAt.Before(now) {
			metrics.ActiveResolutionBreaches++
		}
	}
	if responseCount > 0 {
		metrics.AvgResponseMinutes = float64(responseSum) / float64(responseCount)
	}
	if resolutionCount > 0 {
		metrics.AvgResolutionMinutes = float64(resolutionSum) / float64(resolutionCount)
	}
	return metrics, nil
}

func (r *fakeTrackingRepo) CountByPolicy(ctx context.Context, policyID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.PolicyID == policyID {
			count++
		}
	}
	return count, nil
}

type fakePolicyRepo struct {
	mu       sync.Mutex
	policies map[string]*domain.SLAPolicy
}

func newFakePolicyRepo(policies ...*domain.SLAPolicy) *fakePolicyRepo {
	repo := &fakePolicyRepo{policies: make(map[string]*domain.SLAPolicy)}
	for _, policy := range policies {
		repo.policies[policy.ID] = policy
	}
	return repo
}

func (r *fakePolicyRepo) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SLAPolicy
	for _, policy := range r.policies {
		out = append(out, *policy)
	}
	domain.SortPoliciesByPriority(out)
	return out, nil
}

func (r *fakePolicyRepo) ListActive(ctx context.Context) ([]domain.SLAPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SLAPolicy
	for _, policy := range r.policies {
		if policy.IsActive {
			out = append(out, *policy)
		}
	}
	domain.SortPoliciesByPriority(out)
	return out, nil
}

func (r *fakePolicyRepo) GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	policy, ok := r.policies[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	copied := *policy
	return &copied, nil
}

func (r *fakePolicyRepo) GetActiveByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, policy := range r.policies {
		if policy.IsActive && policy.Priority == priority {
			copied := *policy
			return &copied, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (r *fakePolicyRepo) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	policy.ID = fmt.Sprintf("policy-%d", len(r.policies)+1)
	policy.CreatedAt = time.Now()
	policy.UpdatedAt = policy.CreatedAt
	copied := *policy
	r.policies[policy.ID] = &copied
	return nil
}

func (r *fakePolicyRepo) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[policy.ID]; !ok {
		return repository.ErrNoRows
	}
	copied := *policy
	r.policies[policy.ID] = &copied
	return nil
}

func (r *fakePolicyRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	policy, ok := r.policies[id]
	if !ok {
		return repository.ErrNoRows
	}
	policy.IsActive = active
	return nil
}

func (r *fakePolicyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[id]; !ok {
		return repository.ErrNoRows
	}
	delete(r.policies, id)
	return nil
}

type fakeCalendarRepo struct {
	mu       sync.Mutex
	rules    []domain.DayRule
	holidays []domain.Holiday
}

func newFakeCalendarRepo(rules []domain.DayRule) *fakeCalendarRepo {
	return &fakeCalendarRepo{rules: rules}
}

func (r *fakeCalendarRepo) ListDayRules(ctx context.Context) ([]domain.DayRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DayRule(nil), r.rules...), nil
}

func (r *fakeCalendarRepo) UpdateDayRules(ctx context.Context, rules []domain.DayRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append([]domain.DayRule(nil), rules...)
	return nil
}

func (r *fakeCalendarRepo) ListHolidays(ctx context.Context) ([]domain.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Holiday(nil), r.holidays...), nil
}

func (r *fakeCalendarRepo) AddHoliday(ctx context.Context, holiday *domain.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	holiday.ID = fmt.Sprintf("holiday-%d", len(r.holidays)+1)
	holiday.CreatedAt = time.Now()
	r.holidays = append(r.holidays, *holiday)
	return nil
}

func (r *fakeCalendarRepo) DeleteHoliday(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, holiday := range r.holidays {
		if holiday.ID == id {
			r.holidays = append(r.holidays[:i], r.holidays[i+1:]...)
			return nil
		}
	}
	return repository.ErrNoRows
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// testEnv wires the services against the in-memory fakes.
type testEnv struct {
	tickets       *fakeTicketRepo
	users         *fakeUserRepo
	comments      *fakeCommentRepo
	auditLog      *fakeAuditRepo
	notifications *fakeNotificationRepo
	tracking      *fakeTrackingRepo
	policies      *fakePolicyRepo
	calendarRepo  *fakeCalendarRepo

	tracker    *TrackerService
	lifecycle  *LifecycleService
	assignment *AssignmentService
	metrics    *MetricsService
	policy     *PolicyService
	notifier   *NotificationService
}

func newTestEnv(policies ...*domain.SLAPolicy) *testEnv {
	env := &testEnv{
		tickets:       newFakeTicketRepo(),
		users:         newFakeUserRepo(),
		comments:      &fakeCommentRepo{},
		auditLog:      &fakeAuditRepo{},
		notifications: &fakeNotificationRepo{},
		tracking:      newFakeTrackingRepo(),
		policies:      newFakePolicyRepo(policies...),
		calendarRepo:  newFakeCalendarRepo(weekdayRules()),
	}

	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()
	auditor := audit.NewAuditor(env.auditLog, logger)
	slaCache := cache.NewSLACache(nil, env.policies, env.calendarRepo, time.Minute, logger)

	env.tracker = NewTrackerService(env.tracking, slaCache, time.UTC, nil, logger)
	env.lifecycle = NewLifecycleService(env.tickets, env.comments, env.tracker, auditor, dispatcher, logger)
	env.assignment = NewAssignmentService(env.tickets, env.users, env.comments, auditor, dispatcher, logger)
	env.metrics = NewMetricsService(env.tracking)
	env.policy = NewPolicyService(env.policies, env.calendarRepo, env.tracking, slaCache, auditor, logger)

	env.notifier = NewNotificationService(dispatcher, env.notifications, logger)
	env.notifier.RegisterHandlers()
	return env
}

func (e *testEnv) addUser(id string, role domain.Role) *domain.User {
	user := &domain.User{ID: id, Name: id, Email: id + "@example.com", Role: role}
	e.users.users[id] = user
	return user
}

func (e *testEnv) addTicket(id string, status domain.TicketStatus, assignedTo *string, createdBy string, createdAt time.Time) *domain.Ticket {
	ticket := &domain.Ticket{
		ID:         id,
		Title:      "Printer on fire",
		Status:     status,
		Priority:   domain.TicketPriorityMedium,
		AssignedTo: assignedTo,
		CreatedBy:  createdBy,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	e.tickets.tickets[id] = ticket
	e.tracking.tickets[id] = ticket
	return ticket
}

// weekdayRules enables Monday through Friday 09:00-17:00.
func weekdayRules() []domain.DayRule {
	rules := make([]domain.DayRule, 7)
	for day := 0; day < 7; day++ {
		rules[day] = domain.DayRule{
			DayOfWeek:    day,
			IsWorkingDay: day >= 1 && day <= 5,
			StartMinute:  9 * 60,
			EndMinute:    17 * 60,
		}
	}
	return rules
}

func mediumPolicy(businessHours bool) *domain.SLAPolicy {
	escalation := 120
	return &domain.SLAPolicy{
		ID:                    "policy-medium",
		Name:                  "Standard",
		Priority:              domain.TicketPriorityMedium,
		ResponseTimeMinutes:   60,
		ResolutionTimeMinutes: 240,
		EscalationTimeMinutes: &escalation,
		BusinessHoursOnly:     businessHours,
		IsActive:              true,
	}
}

func strPtr(s string) *string { return &s }
