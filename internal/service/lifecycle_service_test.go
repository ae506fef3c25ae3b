package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

func TestUpdateStatusCustomerRejected(t *testing.T) {
	env := newTestEnv()
	customer := env.addUser("customer-1", domain.RoleCustomer)
	env.addTicket("ticket-1", domain.TicketStatusNew, strPtr("agent-1"), "customer-1", time.Now())

	_, err := env.lifecycle.UpdateStatus(context.Background(), customer, "ticket-1", domain.TicketStatusOpen, time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	assert.Empty(t, env.auditLog.entries)
}

func TestUpdateStatusUnassignedTicket(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser("admin-1", domain.RoleAdmin)
	env.addTicket("ticket-1", domain.TicketStatusNew, nil, "customer-1", time.Now())

	_, err := env.lifecycle.UpdateStatus(context.Background(), admin, "ticket-1", domain.TicketStatusOpen, time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_ASSIGNED"))
}

func TestUpdateStatusAgentNotAssignee(t *testing.T) {
	env := newTestEnv()
	agent := env.addUser("agent-2", domain.RoleAgent)
	env.addTicket("ticket-1", domain.TicketStatusNew, strPtr("agent-1"), "customer-1", time.Now())

	_, err := env.lifecycle.UpdateStatus(context.Background(), agent, "ticket-1", domain.TicketStatusOpen, time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	stored, _ := env.tickets.GetByID(context.Background(), "ticket-1")
	assert.Equal(t, domain.TicketStatusNew, stored.Status)
}

func TestUpdateStatusClosedIsTerminal(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser("admin-1", domain.RoleAdmin)
	env.addTicket("ticket-1", domain.TicketStatusClosed, strPtr("agent-1"), "customer-1", time.Now())

	for _, target := range []domain.TicketStatus{
		domain.TicketStatusNew,
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusEscalated,
	} {
		_, err := env.lifecycle.UpdateStatus(context.Background(), admin, "ticket-1", target, time.Now())
		require.Error(t, err, "closed -> %s must be rejected", target)
		assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
	}
}

func TestUpdateStatusAdminSuccess(t *testing.T) {
	env := newTestEnv(mediumPolicy(false))
	admin := env.addUser("admin-1", domain.RoleAdmin)
	createdAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := env.addTicket("ticket-1", domain.TicketStatusNew, strPtr("agent-1"), "customer-1", createdAt)

	_, err := env.tracker.StartTracking(context.Background(), ticket)
	require.NoError(t, err)

	now := createdAt.Add(30 * time.Minute)
	updated, err := env.lifecycle.UpdateStatus(context.Background(), admin, "ticket-1", domain.TicketStatusOpen, now)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)

	// Exactly one audit entry per call.
	require.Len(t, env.auditLog.entries, 1)
	entry := env.auditLog.entries[0]
	assert.Equal(t, domain.AuditActionStatusChange, entry.Action)
	assert.Equal(t, map[string]any{"status": "new"}, entry.OldValues)
	assert.Equal(t, map[string]any{"status": "open"}, entry.NewValues)

	// First staff transition by a non-creator stamps the first response.
	tracking, err := env.tracking.GetByTicketID(context.Background(), "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracking.FirstResponseAt)
	assert.True(t, tracking.FirstResponseAt.Equal(now))
	require.NotNil(t, tracking.ResponseSLAMet)
	assert.True(t, *tracking.ResponseSLAMet)

	// The creator is notified.
	notes, _ := env.notifications.ListByUser(context.Background(), "customer-1", 10, 0)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "open")
}

func TestUpdateStatusResolvedStampsResolution(t *testing.T) {
	env := newTestEnv(mediumPolicy(false))
	agent := env.addUser("agent-1", domain.RoleAgent)
	createdAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := env.addTicket("ticket-1", domain.TicketStatusInProgress, strPtr("agent-1"), "customer-1", createdAt)

	_, err := env.tracker.StartTracking(context.Background(), ticket)
	require.NoError(t, err)

	now := createdAt.Add(3 * time.Hour)
	_, err = env.lifecycle.UpdateStatus(context.Background(), agent, "ticket-1", domain.TicketStatusResolved, now)
	require.NoError(t, err)

	tracking, err := env.tracking.GetByTicketID(context.Background(), "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracking.ResolvedAt)
	require.NotNil(t, tracking.ResolutionSLAMet)
	assert.True(t, *tracking.ResolutionSLAMet)
	assert.Equal(t, 180, *tracking.ResolutionTimeMinutes)
}

func TestUpdateStatusEscalatedStampsEscalation(t *testing.T) {
	env := newTestEnv(mediumPolicy(false))
	agent := env.addUser("agent-1", domain.RoleAgent)
	createdAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := env.addTicket("ticket-1", domain.TicketStatusOpen, strPtr("agent-1"), "customer-1", createdAt)

	_, err := env.tracker.StartTracking(context.Background(), ticket)
	require.NoError(t, err)

	now := createdAt.Add(90 * time.Minute)
	_, err = env.lifecycle.UpdateStatus(context.Background(), agent, "ticket-1", domain.TicketStatusEscalated, now)
	require.NoError(t, err)

	tracking, err := env.tracking.GetByTicketID(context.Background(), "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracking.EscalatedAt)
	assert.True(t, tracking.EscalatedAt.Equal(now))
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser("admin-1", domain.RoleAdmin)
	env.addTicket("ticket-1", domain.TicketStatusOpen, strPtr("agent-1"), "customer-1", time.Now())

	_, err := env.lifecycle.UpdateStatus(context.Background(), admin, "ticket-1", domain.TicketStatusClosed, time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestUpdateStatusAuditFailureDoesNotAbort(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser("admin-1", domain.RoleAdmin)
	env.addTicket("ticket-1", domain.TicketStatusNew, strPtr("agent-1"), "customer-1", time.Now())
	env.auditLog.fail = true

	updated, err := env.lifecycle.UpdateStatus(context.Background(), admin, "ticket-1", domain.TicketStatusOpen, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)
}

func TestAddCommentByStaffStampsFirstResponse(t *testing.T) {
	env := newTestEnv(mediumPolicy(false))
	agent := env.addUser("agent-1", domain.RoleAgent)
	createdAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := env.addTicket("ticket-1", domain.TicketStatusNew, strPtr("agent-1"), "customer-1", createdAt)

	_, err := env.tracker.StartTracking(context.Background(), ticket)
	require.NoError(t, err)

	now := createdAt.Add(20 * time.Minute)
	comment, err := env.lifecycle.AddComment(context.Background(), agent, "ticket-1", "Looking into it", now)
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)

	tracking, err := env.tracking.GetByTicketID(context.Background(), "ticket-1")
	require.NoError(t, err)
	require.NotNil(t, tracking.FirstResponseAt)
	assert.True(t, tracking.FirstResponseAt.Equal(now))
}

func TestAddCommentByCreatorDoesNotStampFirstResponse(t *testing.T) {
	env := newTestEnv(mediumPolicy(false))
	customer := env.addUser("customer-1", domain.RoleCustomer)
	createdAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := env.addTicket("ticket-1", domain.TicketStatusNew, nil, "customer-1", createdAt)

	_, err := env.tracker.StartTracking(context.Background(), ticket)
	require.NoError(t, err)

	_, err = env.lifecycle.AddComment(context.Background(), customer, "ticket-1", "Any update?", createdAt.Add(10*time.Minute))
	require.NoError(t, err)

	tracking, err := env.tracking.GetByTicketID(context.Background(), "ticket-1")
	require.NoError(t, err)
	assert.Nil(t, tracking.FirstResponseAt)
}

func TestHistoryReturnsEntriesForTicket(t *testing.T) {
	env := newTestEnv()
	admin := env.addUser("admin-1", domain.RoleAdmin)
	env.addTicket("ticket-1", domain.TicketStatusNew, strPtr("agent-1"), "customer-1", time.Now())

	_, err := env.lifecycle.UpdateStatus(context.Background(), admin, "ticket-1", domain.TicketStatusOpen, time.Now())
	require.NoError(t, err)

	entries, err := env.lifecycle.History(context.Background(), "ticket-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditActionStatusChange, entries[0].Action)
}
