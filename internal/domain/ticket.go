package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusEscalated  TicketStatus = "escalated"
)

// statusRank orders statuses for listing; lower sorts first.
var statusRank = map[TicketStatus]int{
	TicketStatusEscalated:  1,
	TicketStatusNew:        2,
	TicketStatusOpen:       3,
	TicketStatusInProgress: 4,
	TicketStatusResolved:   5,
	TicketStatusClosed:     6,
}

// Rank returns the sort rank for a status; unknown statuses sort last.
func (s TicketStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return len(statusRank) + 1
}

// Valid reports whether the status is a known lifecycle state.
func (s TicketStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

var priorityRank = map[TicketPriority]int{
	TicketPriorityCritical: 1,
	TicketPriorityHigh:     2,
	TicketPriorityMedium:   3,
	TicketPriorityLow:      4,
}

// Rank returns the sort rank for a priority; critical sorts first.
func (p TicketPriority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank) + 1
}

// Valid reports whether the priority is known.
func (p TicketPriority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Ticket carries the lifecycle fields the engine owns. The surrounding
// CRUD layer owns the rest of the row.
type Ticket struct {
	ID         string
	Title      string
	Status     TicketStatus
	Priority   TicketPriority
	AssignedTo *string
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
