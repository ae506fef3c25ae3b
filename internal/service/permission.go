package service

import "github.com/spec-kit/sla-engine/internal/domain"

// Verdict is an explicit permission decision.
type Verdict struct {
	Allowed      bool
	NoteRequired bool
	Reason       string
}

type permKey struct {
	role       domain.Role
	isAssignee bool
}

// The lifecycle permission rules as a decision table instead of scattered
// role conditionals: customers never mutate, agents act only on tickets
// assigned to them, admins act on anything. Agents must justify handing
// a ticket away.
var statusVerdicts = map[permKey]Verdict{
	{domain.RoleCustomer, false}: {Reason: "only agents and admins can update ticket status"},
	{domain.RoleCustomer, true}:  {Reason: "only agents and admins can update ticket status"},
	{domain.RoleAgent, false}:    {Reason: "you can only update status of tickets assigned to you"},
	{domain.RoleAgent, true}:     {Allowed: true},
	{domain.RoleAdmin, false}:    {Allowed: true},
	{domain.RoleAdmin, true}:     {Allowed: true},
}

var assignVerdicts = map[permKey]Verdict{
	{domain.RoleCustomer, false}: {Reason: "only agents and admins can assign tickets"},
	{domain.RoleCustomer, true}:  {Reason: "only agents and admins can assign tickets"},
	{domain.RoleAgent, false}:    {Reason: "you can only reassign tickets that are assigned to you"},
	{domain.RoleAgent, true}:     {Allowed: true, NoteRequired: true},
	{domain.RoleAdmin, false}:    {Allowed: true},
	{domain.RoleAdmin, true}:     {Allowed: true},
}

// CanChangeStatus decides whether a role may change the status of a
// ticket it is (or is not) assigned to.
func CanChangeStatus(role domain.Role, isAssignee bool) Verdict {
	return statusVerdicts[permKey{role, isAssignee}]
}

// CanAssign decides whether a role may (re)assign a ticket.
func CanAssign(role domain.Role, isAssignee bool) Verdict {
	return assignVerdicts[permKey{role, isAssignee}]
}
