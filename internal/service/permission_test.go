package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func TestCanChangeStatus(t *testing.T) {
	cases := []struct {
		name       string
		role       domain.Role
		isAssignee bool
		allowed    bool
	}{
		{"customer never", domain.RoleCustomer, false, false},
		{"customer even as assignee", domain.RoleCustomer, true, false},
		{"agent not assignee", domain.RoleAgent, false, false},
		{"agent assignee", domain.RoleAgent, true, true},
		{"admin any ticket", domain.RoleAdmin, false, true},
		{"admin own ticket", domain.RoleAdmin, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := CanChangeStatus(tc.role, tc.isAssignee)
			assert.Equal(t, tc.allowed, verdict.Allowed)
			if !tc.allowed {
				assert.NotEmpty(t, verdict.Reason)
			}
		})
	}
}

func TestCanAssign(t *testing.T) {
	assert.False(t, CanAssign(domain.RoleCustomer, false).Allowed)
	assert.False(t, CanAssign(domain.RoleAgent, false).Allowed)

	agent := CanAssign(domain.RoleAgent, true)
	assert.True(t, agent.Allowed)
	assert.True(t, agent.NoteRequired, "agents must justify handing a ticket away")

	admin := CanAssign(domain.RoleAdmin, false)
	assert.True(t, admin.Allowed)
	assert.False(t, admin.NoteRequired)
}

func TestUnknownRoleDenied(t *testing.T) {
	verdict := CanChangeStatus(domain.Role("superuser"), true)
	assert.False(t, verdict.Allowed)
}
