package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// maxWalkDays bounds the business-minute walk. Four years of days covers
// any sane policy; beyond that the calendar is effectively empty.
const maxWalkDays = 1461

// Deadlines are the computed due instants for a tracking row.
type Deadlines struct {
	ResponseDueAt   time.Time
	ResolutionDueAt time.Time
	EscalationDueAt *time.Time
}

// ComputeDeadlines derives due times from a ticket's creation instant and
// its priority's policy. A nil policy yields nil deadlines: the ticket
// proceeds without SLA tracking.
func ComputeDeadlines(createdAt time.Time, policy *domain.SLAPolicy, calendar *Calendar) (*Deadlines, error) {
	if policy == nil {
		return nil, nil
	}

	advance := func(minutes int) (time.Time, error) {
		if !policy.BusinessHoursOnly {
			return createdAt.Add(time.Duration(minutes) * time.Minute), nil
		}
		return calendar.AddBusinessMinutes(createdAt, minutes)
	}

	responseDue, err := advance(policy.ResponseTimeMinutes)
	if err != nil {
		return nil, err
	}
	resolutionDue, err := advance(policy.ResolutionTimeMinutes)
	if err != nil {
		return nil, err
	}
	deadlines := &Deadlines{ResponseDueAt: responseDue, ResolutionDueAt: resolutionDue}

	if policy.EscalationTimeMinutes != nil {
		escalationDue, err := advance(*policy.EscalationTimeMinutes)
		if err != nil {
			return nil, err
		}
		deadlines.EscalationDueAt = &escalationDue
	}
	return deadlines, nil
}

// AddBusinessMinutes advances start by the given number of minutes,
// counting only minutes inside working windows. The clock pauses outside
// business hours: a start instant before a day's window snaps to the
// window start, and non-working days contribute nothing.
func (c *Calendar) AddBusinessMinutes(start time.Time, minutes int) (time.Time, error) {
	if !c.HasWorkingMinutes() {
		return time.Time{}, apperrors.NewCalendarGap()
	}

	remaining := time.Duration(minutes) * time.Minute
	cursor := start.In(c.loc)
	for day := 0; day <= maxWalkDays; day++ {
		if c.IsWorkingDay(cursor) {
			windowStart, windowEnd := c.Window(cursor)
			at := cursor
			if at.Before(windowStart) {
				at = windowStart
			}
			if at.Before(windowEnd) {
				available := windowEnd.Sub(at)
				if remaining <= available {
					return at.Add(remaining), nil
				}
				remaining -= available
			}
		}
		y, m, d := cursor.Date()
		cursor = time.Date(y, m, d+1, 0, 0, 0, 0, c.loc)
	}
	// Every candidate day was a holiday; same failure mode as an empty week.
	return time.Time{}, apperrors.NewCalendarGap()
}
