package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func TestListForUserReturnsOwnFeed(t *testing.T) {
	env := newTestEnv(mediumPolicy(false))
	admin := env.addUser("admin-1", domain.RoleAdmin)
	env.addUser("customer-1", domain.RoleCustomer)
	createdAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	env.addTicket("ticket-1", domain.TicketStatusNew, strPtr("agent-1"), "customer-1", createdAt)

	_, err := env.lifecycle.UpdateStatus(context.Background(), admin, "ticket-1", domain.TicketStatusOpen, createdAt.Add(time.Minute))
	require.NoError(t, err)

	feed, err := env.notifier.ListForUser(context.Background(), "customer-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "ticket-1", feed[0].TicketID)
	assert.Contains(t, feed[0].Message, "open")

	// The actor does not see the creator's notification.
	feed, err = env.notifier.ListForUser(context.Background(), "admin-1", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, feed)
}
