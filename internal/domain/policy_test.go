package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortPoliciesByPriority(t *testing.T) {
	policies := []SLAPolicy{
		{ID: "p-low", Priority: TicketPriorityLow},
		{ID: "p-high", Priority: TicketPriorityHigh},
		{ID: "p-critical", Priority: TicketPriorityCritical},
		{ID: "p-medium", Priority: TicketPriorityMedium},
	}

	SortPoliciesByPriority(policies)

	got := make([]string, 0, len(policies))
	for _, p := range policies {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{"p-critical", "p-high", "p-medium", "p-low"}, got)
}

func TestSortPoliciesByPriorityUnknownLast(t *testing.T) {
	policies := []SLAPolicy{
		{ID: "p-odd", Priority: TicketPriority("urgent")},
		{ID: "p-low", Priority: TicketPriorityLow},
	}

	SortPoliciesByPriority(policies)

	assert.Equal(t, "p-low", policies[0].ID)
	assert.Equal(t, "p-odd", policies[1].ID)
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, TicketPriorityCritical.Rank(), TicketPriorityHigh.Rank())
	assert.Less(t, TicketPriorityHigh.Rank(), TicketPriorityMedium.Rank())
	assert.Less(t, TicketPriorityMedium.Rank(), TicketPriorityLow.Rank())
	assert.Greater(t, TicketPriority("urgent").Rank(), TicketPriorityLow.Rank())
}
