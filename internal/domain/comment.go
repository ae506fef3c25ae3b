package domain

import "time"

// Comment is a ticket thread entry. The engine appends comments for
// reassignment notes and reads authorship to detect first responses.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Notification is a persisted fire-and-forget message to a user.
type Notification struct {
	ID        string
	UserID    string
	TicketID  string
	Message   string
	ReadAt    *time.Time
	CreatedAt time.Time
}
